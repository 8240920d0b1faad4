package controllers

import (
	"errors"
	"net/http"

	"github.com/cuetime/poolhall-app/pricing"
	"github.com/cuetime/poolhall-app/services"
	"github.com/cuetime/poolhall-app/utils"
	"github.com/gin-gonic/gin"
)

// respondServiceError maps the services error taxonomy onto HTTP status
// codes: not-found -> 404, conflicts -> 409, rejected transitions and bad
// intervals -> 400, anything else -> 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTableNotFound),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrPlayerNotFound),
		errors.Is(err, services.ErrPlayerNotInSession):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrTableOccupied),
		errors.Is(err, services.ErrTableNumberTaken),
		errors.Is(err, services.ErrPlayerAlreadyInSession),
		errors.Is(err, services.ErrPlayerInOtherSession):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrSessionTerminal),
		errors.Is(err, pricing.ErrInvalidInterval):
		utils.RespondError(c, http.StatusBadRequest, err)
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}
