package fntest

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"

	fn "github.com/dsyer/spring-cloud-function"
)

// WantFn defines the assertions for a recorded response.
type WantFn func(t *testing.T, got *httptest.ResponseRecorder)

// Want runs a set of want fns upon the recorded response.
func Want(t *testing.T, got *httptest.ResponseRecorder, wants ...WantFn) {
	t.Helper()

	for _, want := range wants {
		want(t, got)
	}
}

// WantErrs verifies the errors of the response body match the desired.
func WantErrs(wants ...fn.APIError) WantFn {
	line := src(1)
	return func(t *testing.T, got *httptest.ResponseRecorder) {
		t.Helper()

		errs := decodeErrs(t, line, got)
		if len(errs) != len(wants) {
			t.Fatalf("number of errors mismatched\n\t\twant:\t%+v\n\t\tgot:\t%+v\n\t\tsource: %s", wants, errs, line)
		}

		for i, want := range wants {
			if err := errs[i]; err != want {
				t.Errorf("err[%d] does not match:\n\t\twant:\t%+v\n\t\tgot:\t%+v\n\t\tsource: %s", i, want, err, line)
			}
		}
	}
}

// WantNoErrs verifies the status is not an error status.
func WantNoErrs() WantFn {
	line := src(1)
	return func(t *testing.T, got *httptest.ResponseRecorder) {
		t.Helper()

		if got.Code < 400 {
			return
		}
		t.Errorf("received unexpected error response:\n\t\tcode:\t%d\n\t\tbody:\t%s\n\t\tsource: %s", got.Code, got.Body.String(), line)
	}
}

// WantCode verifies the status matches desired.
func WantCode(want int) WantFn {
	line := src(1)
	return func(t *testing.T, got *httptest.ResponseRecorder) {
		t.Helper()

		eq(t, line, want, got.Code, "Code")
	}
}

// WantBody verifies the raw body matches desired.
func WantBody(want string) WantFn {
	line := src(1)
	return func(t *testing.T, got *httptest.ResponseRecorder) {
		t.Helper()

		eq(t, line, want, got.Body.String(), "Body")
	}
}

// WantJSON verifies the body is JSON equal to desired, ignoring formatting
// and key order.
func WantJSON(want string) WantFn {
	line := src(1)
	return func(t *testing.T, got *httptest.ResponseRecorder) {
		t.Helper()

		var w, g any
		if err := json.Unmarshal([]byte(want), &w); err != nil {
			t.Fatalf("invalid wanted json: %s\n\t\tsource: %s", err, line)
		}
		if err := json.Unmarshal(got.Body.Bytes(), &g); err != nil {
			t.Fatalf("response body is not json: %s\n\t\tbody:\t%s\n\t\tsource: %s", err, got.Body.String(), line)
		}

		wb, _ := json.Marshal(w)
		gb, _ := json.Marshal(g)
		eq(t, line, string(wb), string(gb), "JSON body")
	}
}

// WantHeader verifies the first value of the named header.
func WantHeader(name, want string) WantFn {
	line := src(1)
	return func(t *testing.T, got *httptest.ResponseRecorder) {
		t.Helper()

		eq(t, line, want, got.Header().Get(name), "Header "+name)
	}
}

func decodeErrs(t *testing.T, line string, got *httptest.ResponseRecorder) []fn.APIError {
	t.Helper()

	var body struct {
		Errors []fn.APIError `json:"errors"`
	}
	if err := json.Unmarshal(got.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode errors: %s\n\t\tbody:\t%s\n\t\tsource: %s", err, got.Body.String(), line)
	}
	return body.Errors
}

func src(deltas ...int) string {
	skip := 1
	for _, v := range deltas {
		skip += v
	}
	// Source identifies the file:line of the callsite.
	pc, file, line, _ := runtime.Caller(skip)
	if skip != 1 {
		pc, _, _, _ = runtime.Caller(1)
	}

	out := fmt.Sprintf("%s:%d", file, line)
	if f := runtime.FuncForPC(pc); f != nil {
		fnName := strings.TrimPrefix(f.Name(), "github.com/dsyer/spring-cloud-function/")
		out += " [" + fnName + "]"
	}

	return out
}

func eq[T comparable](t *testing.T, line string, want, got T, label string) {
	t.Helper()

	if want == got {
		return
	}

	t.Errorf("%s values do not match:\n\t\twant:\t%+v\n\t\tgot:\t%+v\n\t\tsource: %s", label, want, got, line)
}
