package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// fieldError responds 400 with the field-keyed validation shape the client
// renders inline.
func fieldError(c *gin.Context, field, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{field: msg}})
}

// svcError maps a service-layer error onto the API taxonomy: not-found
// errors become 404, everything else is a 400 keyed under field.
func svcError(c *gin.Context, field string, err error) {
	msg := strip(err)
	if strings.Contains(msg, "not found") {
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return
	}
	fieldError(c, field, msg)
}

// serverError responds 500 for failures the caller cannot correct.
func serverError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": strip(err)})
}

// strip removes the internal package prefix ("task: ", "auth: ") from an
// error message before it goes over the wire.
func strip(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i > 0 && i < 12 && !strings.Contains(msg[:i], " ") {
		return msg[i+2:]
	}
	return msg
}

// paramQueryUint parses an optional numeric query parameter.
func paramQueryUint(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Query(name), 10, 32)
	return uint(v), err
}

// paramQueryInt parses an optional numeric query parameter.
func paramQueryInt(c *gin.Context, name string) (int, error) {
	return strconv.Atoi(c.Query(name))
}

// paramID parses a numeric path parameter, responding 404 on garbage.
func paramID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(v), true
}
