package httpapi

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// 缓存策略
const (
	CacheNoStore   = "no-store"
	CachePrivate   = "private"
	CachePublic    = "public"
	CacheSWR       = "swr"
	CacheImmutable = "immutable"
	CacheETag      = "etag"
)

// CacheStrategy describes the caching headers applied to a route.
type CacheStrategy struct {
	Kind    string
	MaxAge  time.Duration
	SMaxAge time.Duration // public only
	Stale   time.Duration // swr only
}

var (
	NoStore   = CacheStrategy{Kind: CacheNoStore}
	Immutable = CacheStrategy{Kind: CacheImmutable}
	ETag      = CacheStrategy{Kind: CacheETag}
)

func Private(maxAge time.Duration) CacheStrategy {
	return CacheStrategy{Kind: CachePrivate, MaxAge: maxAge}
}

func Public(maxAge, sMaxAge time.Duration) CacheStrategy {
	return CacheStrategy{Kind: CachePublic, MaxAge: maxAge, SMaxAge: sMaxAge}
}

func StaleWhileRevalidate(maxAge, stale time.Duration) CacheStrategy {
	return CacheStrategy{Kind: CacheSWR, MaxAge: maxAge, Stale: stale}
}

// HeaderValue returns the Cache-Control value for the strategy.
func (s CacheStrategy) HeaderValue() string {
	switch s.Kind {
	case CachePrivate:
		return fmt.Sprintf("private, max-age=%d", seconds(s.MaxAge))
	case CachePublic:
		return fmt.Sprintf("public, max-age=%d, s-maxage=%d", seconds(s.MaxAge), seconds(s.SMaxAge))
	case CacheSWR:
		return fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", seconds(s.MaxAge), seconds(s.Stale))
	case CacheImmutable:
		return "public, max-age=31536000, immutable"
	case CacheETag:
		return "private, no-cache"
	default:
		return "no-store, no-cache, must-revalidate"
	}
}

func seconds(d time.Duration) int64 { return int64(d / time.Second) }

func setNoStore(h http.Header) {
	h.Set("Cache-Control", NoStore.HeaderValue())
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}

// CacheControl returns middleware applying the strategy. The etag strategy buffers GET
// responses, sets a strong ETag and answers 304 when If-None-Match matches.
func CacheControl(s CacheStrategy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		switch s.Kind {
		case CacheETag:
			return etagHandler(next)
		case CacheNoStore, "":
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				setNoStore(w.Header())
				next.ServeHTTP(w, r)
			})
		default:
			value := s.HeaderValue()
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Cache-Control", value)
				next.ServeHTTP(w, r)
			})
		}
	}
}

type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferedWriter) Header() http.Header { return b.header }

func (b *bufferedWriter) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func etagHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			setNoStore(w.Header())
			next.ServeHTTP(w, r)
			return
		}

		buf := &bufferedWriter{header: w.Header()}
		next.ServeHTTP(buf, r)
		if buf.status == 0 {
			buf.status = http.StatusOK
		}

		if buf.status != http.StatusOK {
			setNoStore(w.Header())
			w.WriteHeader(buf.status)
			_, _ = w.Write(buf.body.Bytes())
			return
		}

		sum := sha1.Sum(buf.body.Bytes())
		tag := `"` + hex.EncodeToString(sum[:]) + `"`
		w.Header().Set("ETag", tag)
		w.Header().Set("Cache-Control", ETag.HeaderValue())

		if etagMatches(r.Header.Get("If-None-Match"), tag) {
			w.Header().Del("Content-Type")
			w.Header().Del("Content-Length")
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write(buf.body.Bytes())
		}
	})
}

func etagMatches(header, tag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == tag {
			return true
		}
	}
	return false
}
