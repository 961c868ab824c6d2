package controller

import (
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
)

// 업로드 파일 최대 크기 (백업, 엑셀, 보안키)
const maxUploadSize = 10 << 20

// readUpload multipart 의 "file" 필드가 있으면 그 내용을, 없으면 요청 본문을 읽는다
func readUpload(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			return nil, err
		}
		if header.Size > maxUploadSize {
			return nil, fmt.Errorf("file too large: %d bytes", header.Size)
		}
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxUploadSize))
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxUploadSize {
		return nil, fmt.Errorf("body too large")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	return data, nil
}
