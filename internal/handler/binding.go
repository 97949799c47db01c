package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"cinema-ticketing-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	validatorsOnce sync.Once
	validatorsErr  error
)

// RegisterValidators installs the custom binding rules on gin's validator engine
func RegisterValidators() error {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			validatorsErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		validatorsErr = utils.RegisterValidators(v)
	})
	return validatorsErr
}

type trimmer interface {
	trim()
}

// bindJSON decodes the body, trims text fields and then validates the binding tags.
// It writes the 400 response itself and reports false when the request is rejected.
func bindJSON(c *gin.Context, req trimmer) bool {
	if c.Request.Body == nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	dec := json.NewDecoder(c.Request.Body)
	if err := dec.Decode(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	// the body must hold exactly one JSON value
	if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return false
	}

	req.trim()

	if err := binding.Validator.ValidateStruct(req); err != nil {
		if fields := utils.ValidationErrors(err); fields != nil {
			utils.ValidationErrorResponse(c, fields)
			return false
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
