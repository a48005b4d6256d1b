package httpapi

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	apperrors "github.com/plannio/plannio/internal/platform/errors"
	errori18n "github.com/plannio/plannio/internal/platform/errors/i18n"
	"github.com/plannio/plannio/internal/platform/httpx"
	i18ncatalog "github.com/plannio/plannio/internal/platform/i18n/catalog"
)

type errorBody struct {
	Code             string `json:"code"`
	Message          string `json:"message"`
	LocalizedMessage string `json:"localized_message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// localePicker matches Accept-Language headers against the loaded catalogs.
type localePicker struct {
	matcher language.Matcher
	locales []string
}

func newLocalePicker(bundle *i18ncatalog.Bundle) *localePicker {
	// The base locale goes first so the matcher falls back to it.
	locales := []string{i18ncatalog.BaseLocale}
	for _, locale := range bundle.Locales() {
		if locale != i18ncatalog.BaseLocale {
			locales = append(locales, locale)
		}
	}
	tags := make([]language.Tag, 0, len(locales))
	kept := make([]string, 0, len(locales))
	for _, locale := range locales {
		tag, err := language.Parse(locale)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		kept = append(kept, locale)
	}
	return &localePicker{matcher: language.NewMatcher(tags), locales: kept}
}

func (p *localePicker) pick(acceptLanguage string) string {
	if p == nil || strings.TrimSpace(acceptLanguage) == "" {
		return i18ncatalog.BaseLocale
	}
	requested, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(requested) == 0 {
		return i18ncatalog.BaseLocale
	}
	_, index, _ := p.matcher.Match(requested...)
	return p.locales[index]
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	message := err.Error()
	if status >= http.StatusInternalServerError {
		log.Printf("httpapi: %s %s: %v", r.Method, r.URL.Path, err)
		message = "internal error"
	}

	locale := s.locales.pick(r.Header.Get("Accept-Language"))
	localized := errori18n.GetCatalog(locale).Format(string(code), apperrors.MetadataOf(err))

	writeErr := httpx.WriteJSON(w, status, errorEnvelope{Error: errorBody{
		Code:             string(code),
		Message:          message,
		LocalizedMessage: localized,
	}})
	if writeErr != nil {
		log.Printf("httpapi: write error response: %v", writeErr)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := httpx.WriteJSON(w, status, payload); err != nil {
		log.Printf("httpapi: %s %s: write response: %v", r.Method, r.URL.Path, err)
	}
}

// decode reads the request body into target, mapping malformed payloads to
// INVALID_REQUEST.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, target any) error {
	if err := httpx.DecodeJSON(w, r, target); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidRequest, "request body is invalid", err)
	}
	return nil
}

func pageParams(r *http.Request) (int, string) {
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	return pageSize, r.URL.Query().Get("page_token")
}
