package misc

import (
	"context"
	"io"
	"net/mail"
	"strings"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kerrors"
)

// EmailExtractor parses RFC 5322 messages via net/mail. Outlook .msg/MAPI
// parsing has no pure-Go reader in this module's dependency pack and is
// explicitly best-effort: a .msg payload fails RFC 5322 parsing and is
// reported as a typed Parsing error rather than silently producing empty
// content.
type EmailExtractor struct {
	extract.Stateless
}

func NewEmail() *EmailExtractor { return &EmailExtractor{} }

func (e *EmailExtractor) Name() string { return "email" }

func (e *EmailExtractor) SupportedMIMETypes() []string {
	return []string{"message/rfc822"}
}

func (e *EmailExtractor) ExtractBytes(ctx context.Context, content []byte, mimeHint string, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
	msg, err := mail.ReadMessage(strings.NewReader(string(content)))
	if err != nil {
		return nil, kerrors.NewParsing("email", err)
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, kerrors.NewParsing("email", err)
	}

	header := msg.Header
	meta := kdoc.Metadata{}
	meta.WithEmail(kdoc.EmailMetadata{
		From:      header.Get("From"),
		To:        splitAddressList(header.Get("To")),
		CC:        splitAddressList(header.Get("Cc")),
		BCC:       splitAddressList(header.Get("Bcc")),
		MessageID: header.Get("Message-Id"),
	})
	if subject, err := header.Subject(); err == nil {
		meta.Subject = subject
	}

	return &kdoc.ExtractionResult{
		Content:  string(body),
		MimeType: "message/rfc822",
		Metadata: meta,
	}, nil
}

func splitAddressList(raw string) []string {
	if raw == "" {
		return nil
	}
	addrs, err := mail.ParseAddressList(raw)
	if err != nil {
		return []string{raw}
	}
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.Address)
	}
	return out
}
