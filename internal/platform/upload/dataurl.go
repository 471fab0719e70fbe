package upload

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrImagemInvalida = errors.New("imagem invalida")

// MaxImageBytes limita o tamanho da imagem decodificada.
const MaxImageBytes = 5 << 20

var tiposAceitos = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

// IsDataURL indica se o valor é uma imagem embutida (data URL) e não uma URL pública.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURL aceita somente "data:image/(png|jpeg|gif);base64,<payload>".
func DecodeDataURL(s string) ([]byte, string, error) {
	if !IsDataURL(s) {
		return nil, "", fmt.Errorf("%w: esperado data URL", ErrImagemInvalida)
	}
	cabecalho, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: data URL sem conteudo", ErrImagemInvalida)
	}

	contentType, encoding, _ := strings.Cut(cabecalho, ";")
	if encoding != "base64" {
		return nil, "", fmt.Errorf("%w: somente base64 e suportado", ErrImagemInvalida)
	}
	if !tiposAceitos[contentType] {
		return nil, "", fmt.Errorf("%w: tipo %q nao aceito", ErrImagemInvalida, contentType)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes {
		return nil, "", fmt.Errorf("%w: imagem maior que %d bytes", ErrImagemInvalida, MaxImageBytes)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: base64 invalido: %v", ErrImagemInvalida, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: imagem vazia", ErrImagemInvalida)
	}
	return data, contentType, nil
}

// EncodeDataURL é o inverso de DecodeDataURL.
func EncodeDataURL(data []byte, contentType string) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
