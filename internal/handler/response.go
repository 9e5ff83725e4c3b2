package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/kunaltyagi18/ecomm-store/internal/wire"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// envelope is the success response: {"success":true,"data":...,"message":...}
// plus any extra top-level fields.
type envelope struct {
	status  int
	message string
	data    func(e *jx.Encoder)
	extra   func(e *jx.Encoder)
}

func (env envelope) write(w http.ResponseWriter) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("success")
	e.Bool(true)
	if env.data != nil {
		e.FieldStart("data")
		env.data(e)
	}
	e.FieldStart("message")
	e.Str(env.message)
	if env.extra != nil {
		env.extra(e)
	}
	e.ObjEnd()

	writeJSON(w, env.status, e.Bytes())
}

func ok(w http.ResponseWriter, message string, data func(e *jx.Encoder)) {
	envelope{status: http.StatusOK, message: message, data: data}.write(w)
}

func created(w http.ResponseWriter, message string, data func(e *jx.Encoder)) {
	envelope{status: http.StatusCreated, message: message, data: data}.write(w)
}

// fail writes {"success":false,"message":...} with an "error" detail when
// detail is non-nil. 5xx responses are logged.
func fail(w http.ResponseWriter, r *http.Request, status int, message string, detail error) {
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error(message, zap.Error(detail))
	}

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("success")
	e.Bool(false)
	e.FieldStart("message")
	e.Str(message)
	if detail != nil {
		e.FieldStart("error")
		e.Str(detail.Error())
	}
	e.ObjEnd()

	writeJSON(w, status, e.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// decodeBody reads the request body and hands it to decode. Failures are
// returned as *wire.DecodeError.
func decodeBody[T any](w http.ResponseWriter, r *http.Request, decode func(d *jx.Decoder) (T, error)) (T, error) {
	var zero T
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return zero, &wire.DecodeError{Err: errors.Wrap(err, "read body")}
	}
	d := jx.DecodeBytes(data)
	v, err := decode(d)
	if err != nil {
		var de *wire.DecodeError
		if !errors.As(err, &de) {
			err = &wire.DecodeError{Err: err}
		}
		return zero, err
	}
	// Anything but whitespace after the value is rejected.
	if err := d.Skip(); !errors.Is(err, io.EOF) {
		return zero, &wire.DecodeError{Err: errors.New("unexpected trailing data")}
	}
	return v, nil
}
