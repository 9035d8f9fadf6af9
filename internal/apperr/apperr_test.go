package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := New(KindCentroidUnavailable, "no centroid for %s", "10001")
	err := fmt.Errorf("build query: %w", base)

	if got := KindOf(err); got != KindCentroidUnavailable {
		t.Errorf("KindOf: got %v, want %v", got, KindCentroidUnavailable)
	}
	if !Is(err, KindCentroidUnavailable) {
		t.Error("Is should match wrapped kind")
	}
}

func TestKindOf_Plain(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindUnknown {
		t.Errorf("KindOf plain error: got %v", got)
	}
	if Is(nil, KindUnknown) {
		t.Error("Is(nil) should be false")
	}
}

func TestWrap_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindQueryExecution, cause, "execute query")
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	if err.Error() != "execute query: connection refused" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidRequest:      http.StatusBadRequest,
		KindCentroidUnavailable: http.StatusServiceUnavailable,
		KindQueryExecution:      http.StatusInternalServerError,
		KindUnknown:             http.StatusInternalServerError,
	}
	for k, want := range cases {
		if got := k.HTTPStatus(); got != want {
			t.Errorf("%s: got %d, want %d", k, got, want)
		}
	}
}
