package uuid

import (
	"strings"

	googleuuid "github.com/google/uuid"
)

//NewLettersNumbers returns uuid without "-"
//usable as a part of an unquoted SQL identifier
func NewLettersNumbers() string {
	uuidValue := googleuuid.New().String()
	return strings.ReplaceAll(uuidValue, "-", "")
}
