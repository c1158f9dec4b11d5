package persistence

import (
	"encoding/json"
	"io"

	"github.com/felixbrock/promptenhancer/internal/log"
	"go.uber.org/zap"
)

func Read(reader io.ReadCloser) ([]byte, error) {
	defer func() {
		if err := reader.Close(); err != nil {
			log.With(zap.Error(err)).Error("Error occurred closing reader")
		}
	}()

	content, err := io.ReadAll(reader)

	if err != nil {
		return nil, err
	}

	return content, nil
}

func ReadJSON[T any](content []byte) (*T, error) {
	var t *T
	err := json.Unmarshal(content, &t)

	if err != nil {
		return nil, err
	}

	return t, nil
}
