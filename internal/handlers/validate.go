package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strings"
	"taskManagement/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// в сообщениях используем имена полей из JSON
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// decodeBody читает JSON тело и проверяет теги validate.
// Возвращает ошибку, готовую к отправке клиенту.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) *service.BusinessError {
	if !checkContentType(r, "application/json") {
		return service.NewBusinessError(codeUnsupportedMedia, "Content-Type must be application/json",
			service.ToDetail("received", r.Header.Get("Content-Type")))
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return invalidRequest("Invalid request body", service.ToDetail("reason", err.Error()))
	}

	if reflect.Indirect(reflect.ValueOf(dst)).Kind() != reflect.Struct {
		return nil
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return invalidRequest(
				fmt.Sprintf("Field '%s' failed validation: %s", fieldPath(fe), fe.Tag()),
				service.ToDetail("field", fieldPath(fe)),
				service.ToDetail("rule", fe.Tag()),
			)
		}
		return invalidRequest("Invalid request body", service.ToDetail("reason", err.Error()))
	}
	return nil
}

// fieldPath отбрасывает имя корневой структуры: "MoveTaskRequest.tasks[0].position" -> "tasks[0].position"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func parseObjectID(raw string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// pathID достаёт {id} из маршрута, некорректный идентификатор отклоняется до обращения к хранилищу
func pathID(r *http.Request) (primitive.ObjectID, *service.BusinessError) {
	raw := chi.URLParam(r, "id")
	id, ok := parseObjectID(raw)
	if !ok {
		return primitive.NilObjectID, invalidRequest("Invalid task ID", service.ToDetail("id", raw))
	}
	return id, nil
}
