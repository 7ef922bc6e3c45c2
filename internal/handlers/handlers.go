package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/questboard/questboard/pkg/response"
)

// parseIDParam reads a positive integer path parameter, writing a 400
// response when it is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
