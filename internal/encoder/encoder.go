package encoder

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"memegen/internal/domain"
)

var errEmptyFile = errors.New("file is empty")

// Encoder turns an uploaded file into its base64 transport form.
type Encoder struct{}

func New() *Encoder {
	return &Encoder{}
}

// Encode reads the whole file and returns the encoded payload. Any open or read
// failure, an empty file, or a cancelled ctx is reported as a *domain.ReadError.
func (e *Encoder) Encode(ctx context.Context, file domain.File) (domain.EncodedPayload, error) {
	if file == nil {
		return domain.EncodedPayload{}, &domain.ReadError{Cause: errors.New("no file")}
	}

	if err := ctx.Err(); err != nil {
		return domain.EncodedPayload{}, &domain.ReadError{Name: file.Name(), Cause: err}
	}

	rc, err := file.Open()
	if err != nil {
		return domain.EncodedPayload{}, &domain.ReadError{Name: file.Name(), Cause: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.EncodedPayload{}, &domain.ReadError{Name: file.Name(), Cause: err}
	}
	if len(data) == 0 {
		return domain.EncodedPayload{}, &domain.ReadError{Name: file.Name(), Cause: errEmptyFile}
	}
	if err := ctx.Err(); err != nil {
		return domain.EncodedPayload{}, &domain.ReadError{Name: file.Name(), Cause: err}
	}

	mediaType := domain.NormalizeMediaType(file.MediaType())
	if mediaType == "" {
		mediaType = domain.NormalizeMediaType(http.DetectContentType(data))
	}

	return domain.EncodedPayload{
		Data:      base64.StdEncoding.EncodeToString(data),
		MediaType: mediaType,
	}, nil
}

// DataURL renders payload as a data: URL.
func DataURL(payload domain.EncodedPayload) string {
	var b bytes.Buffer
	b.Grow(len(payload.Data) + len(payload.MediaType) + 13)
	b.WriteString("data:")
	b.WriteString(payload.MediaType)
	b.WriteString(";base64,")
	b.WriteString(payload.Data)
	return b.String()
}
