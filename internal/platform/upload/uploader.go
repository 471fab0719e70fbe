// Pacote upload envia imagens de participantes para o serviço de hospedagem externo.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/marcelojr/awards-voting/internal/domain"
)

// HTTPUploader faz POST multipart no endpoint configurado e espera {"url": "..."} de volta.
type HTTPUploader struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPUploader(endpoint, apiKey string, timeout time.Duration) *HTTPUploader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPUploader{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type respostaUpload struct {
	URL string `json:"url"`
}

func (u *HTTPUploader) Upload(ctx context.Context, image []byte, contentType string) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="thumbnail"`)
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("upload: montar formulario: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("upload: montar formulario: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("upload: montar formulario: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("upload: criar requisicao: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: enviar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detalhe, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload: status %d: %s", resp.StatusCode, bytes.TrimSpace(detalhe))
	}

	var out respostaUpload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("upload: resposta invalida: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("upload: resposta sem url")
	}
	return out.URL, nil
}

// Passthrough é usado quando não há serviço de imagens configurado: a imagem
// continua embutida como data URL no próprio registro.
type Passthrough struct{}

func NewPassthrough() Passthrough {
	return Passthrough{}
}

func (Passthrough) Upload(_ context.Context, image []byte, contentType string) (string, error) {
	return EncodeDataURL(image, contentType), nil
}

var (
	_ domain.ImageUploader = (*HTTPUploader)(nil)
	_ domain.ImageUploader = Passthrough{}
)
