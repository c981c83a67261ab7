package fntest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	fn "github.com/dsyer/spring-cloud-function"
	"github.com/dsyer/spring-cloud-function/catalog"
	"github.com/dsyer/spring-cloud-function/fntest"
)

type address struct {
	PostalCode string `json:"postalCode"`
}

type city struct {
	Name string `json:"name"`
}

func newHandler(t *testing.T, name string) http.Handler {
	return fn.NewController(fntest.NewLogger(t), catalog.New(
		catalog.Function("lookup", func(_ context.Context, a address) (city, error) {
			return city{Name: name}, nil
		}),
	))
}

const reqSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "postalCode": {
      "type": "string",
      "pattern": "\\d{5}"
    }
  },
  "required": ["postalCode"]
}`

const respSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "name": {
      "type": "string",
      "enum": ["Cook"]
    }
  },
  "required": ["name"]
}`

func TestHandlerSchemaOK(t *testing.T) {
	type (
		inputs struct {
			cityName   string
			body       string
			reqSchema  string
			respSchema string
		}

		wantFn func(t *testing.T, err error)
	)

	tests := []struct {
		name  string
		input inputs
		want  wantFn
	}{
		{
			name: "with valid req and resp schema and compliant req and resp bodies should pass",
			input: inputs{
				cityName:   "Cook",
				body:       `{"postalCode": "55755"}`,
				reqSchema:  reqSchema,
				respSchema: respSchema,
			},
			want: mustNoErr,
		},
		{
			name: "with valid req schema and invalid request body should fail",
			input: inputs{
				cityName:  "Cook",
				body:      `{"postalCode": "5"}`,
				reqSchema: reqSchema,
			},
			want: func(t *testing.T, err error) {
				errMsg := "failed request schema validation: postalCode: Does not match pattern '\\d{5}'"
				if err == nil || !strings.HasSuffix(err.Error(), errMsg) {
					t.Fatal("did not get expected error: ", err)
				}
			},
		},
		{
			name: "with valid resp schema and invalid response body should fail",
			input: inputs{
				cityName:   "Duluth",
				body:       `{"postalCode": "55755"}`,
				respSchema: respSchema,
			},
			want: func(t *testing.T, err error) {
				errMsg := "failed response schema validation: name: name must be one of the following: \"Cook\""
				if err == nil || !strings.HasSuffix(err.Error(), errMsg) {
					t.Fatal("did not get expected error: ", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/lookup", strings.NewReader(tt.input.body))
			err := fntest.HandlerSchemaOK(newHandler(t, tt.input.cityName), req, tt.input.reqSchema, tt.input.respSchema)
			tt.want(t, err)
		})
	}
}

func TestSchemaOK(t *testing.T) {
	t.Run("with valid schema should pass", func(t *testing.T) {
		err := fntest.SchemaOK(reqSchema)
		mustNoErr(t, err)
	})

	t.Run("with invalid schema should fail", func(t *testing.T) {
		err := fntest.SchemaOK(reqSchema[15:])
		if err == nil {
			t.Fatal("expected validation error")
		}
	})
}

func TestWant(t *testing.T) {
	h := newHandler(t, "Cook")

	rec := fntest.Do(h, httptest.NewRequest(http.MethodPost, "/lookup", strings.NewReader(`{"postalCode":"55755"}`)))
	fntest.Want(t, rec,
		fntest.WantNoErrs(),
		fntest.WantCode(http.StatusOK),
		fntest.WantJSON(`{"name": "Cook"}`),
		fntest.WantHeader("Content-Type", "application/json"),
	)

	rec = fntest.Do(h, httptest.NewRequest(http.MethodPost, "/missing", strings.NewReader("foo")))
	fntest.Want(t, rec,
		fntest.WantCode(http.StatusNotFound),
		fntest.WantErrs(fn.APIError{Code: http.StatusNotFound, Message: fn.ErrNoSuchFunction.Error()}),
	)
}

func mustNoErr(t *testing.T, err error) {
	if err != nil {
		t.Fatal("unexpected error: " + err.Error())
	}
}

