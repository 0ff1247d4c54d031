package render

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"creditline/core"
	"creditline/handler/codes"
)

type H map[string]interface{}

// JSON render with json
func JSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Errorln("render json")
	}
}

// Text render with text
func Text(w http.ResponseWriter, t string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(t)); err != nil {
		logrus.WithError(err).Errorln("render text")
	}
}

// Error writes err with the ledger error code and a status derived from the
// error kind, so callers can tell rejection kinds apart.
func Error(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(codes.HTTPStatus(err))

	body := H{"code": int(core.CodeOf(err)), "msg": err.Error()}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Errorln("render error")
	}
}

// BadRequest malformed input, before any ledger call
func BadRequest(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)

	body := H{"code": -1, "msg": err.Error()}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Errorln("render error")
	}
}

// NotFoundRequest unknown route
func NotFoundRequest(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)

	body := H{"code": -1, "msg": err.Error()}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Errorln("render error")
	}
}
