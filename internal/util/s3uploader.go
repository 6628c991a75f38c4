package util

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type S3Uploader struct {
	client   *http.Client
	wg       sync.WaitGroup
	errors   chan error
	progress chan int64
}

func NewS3Uploader() *S3Uploader {
	return &S3Uploader{
		client: &http.Client{
			Timeout: 60 * time.Minute, // Для очень больших файлов
		},
		errors:   make(chan error, 10),
		progress: make(chan int64, 100),
	}
}

// UploadFileAsync асинхронная загрузка файла по pre-signed URL
func (u *S3Uploader) UploadFileAsync(presignedURL string, filePath string) {
	u.wg.Add(1)

	go func() {
		defer u.wg.Done()

		err := u.uploadFile(presignedURL, filePath)
		if err != nil {
			u.errors <- fmt.Errorf("ошибка загрузки %s: %w", filepath.Base(filePath), err)
		} else {
			u.progress <- -1 // Сигнал завершения
		}
	}()
}

// uploadFile синхронная реализация загрузки
func (u *S3Uploader) uploadFile(presignedURL string, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()
	defer os.Remove(filePath)

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("ошибка получения информации о файле: %w", err)
	}

	req, err := http.NewRequest("PUT", presignedURL, file)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.ContentLength = fileInfo.Size()

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("неожиданный статус ответа: %s", resp.Status)
	}

	return nil
}

func (u *S3Uploader) Errors() <-chan error {
	return u.errors
}

func (u *S3Uploader) Progress() <-chan int64 {
	return u.progress
}

// Wait блокируется до завершения всех загрузок
func (u *S3Uploader) Wait() {
	u.wg.Wait()
	close(u.errors)
	close(u.progress)
}
