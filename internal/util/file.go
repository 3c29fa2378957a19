package util

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// ValidateMimeType 深度校验文件 MIME 类型
// allowedTypes: 允许的 MIME 前缀或完整类型，如 "image/", "application/pdf"
func ValidateMimeType(reader io.Reader, allowedTypes []string) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	mimeType := http.DetectContentType(buffer[:n])

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return mimeType, nil
		}
	}

	return mimeType, errors.New("invalid file type: " + mimeType)
}

func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimeImage)
}

// Upload 已校验的上传文件
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

func (u *Upload) Reader() io.Reader {
	return bytes.NewReader(u.Data)
}

// ReadUpload 读取表单文件并校验大小与类型
func ReadUpload(fh *multipart.FileHeader, allowedTypes []string) (*Upload, error) {
	if fh.Size > MaxUploadSize {
		return nil, NewValidationError(fmt.Sprintf("file too large: max %d MB", MaxUploadSize>>20))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxUploadSize {
		return nil, NewValidationError(fmt.Sprintf("file too large: max %d MB", MaxUploadSize>>20))
	}
	mimeType, err := ValidateMimeType(bytes.NewReader(data), allowedTypes)
	if err != nil {
		return nil, NewValidationError(err.Error())
	}
	return &Upload{Name: fh.Filename, ContentType: mimeType, Size: int64(len(data)), Data: data}, nil
}
