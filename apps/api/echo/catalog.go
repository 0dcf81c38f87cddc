package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kmutombo/veridoc/core/catalog"
	"github.com/kmutombo/veridoc/core/user"
)

type catalogApi struct {
	svc    catalog.Service
	usrSvc user.Service
}

func registerCatalogAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc catalog.Service, usrSvc user.Service) {
	api := catalogApi{svc: svc, usrSvc: usrSvc}

	cg := g.Group("/countries", jwt)
	cg.GET("", api.queryCountries)
	cg.POST("", api.createCountry, directorMiddleware())
	cg.GET("/:id", api.retrieveCountry)
	cg.PUT("/:id", api.updateCountry, directorMiddleware())

	rg := g.Group("/requirements", jwt)
	rg.GET("", api.queryRequirements)
	rg.POST("", api.createRequirement, directorMiddleware())
	rg.GET("/:id", api.retrieveRequirement)
	rg.PUT("/:id", api.updateRequirement, directorMiddleware())
	rg.DELETE("/:id", api.destroyRequirement, directorMiddleware())
}

// Country handlers

func (api *catalogApi) createCountry(ctx echo.Context) error {
	var data catalog.NewCountry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCountry")
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cty, err := api.svc.CreateCountry(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cty)
}

func (api *catalogApi) queryCountries(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	activeOnly, _ := strconv.ParseBool(ctx.QueryParam("active_only"))

	countries, err := api.svc.QueryCountries(ctx.Request().Context(), actor, activeOnly)
	if err != nil {
		return errors.Wrap(err, "querying countries")
	}
	if countries == nil {
		countries = []catalog.Country{}
	}
	return ctx.JSON(http.StatusOK, countries)
}

func (api *catalogApi) retrieveCountry(ctx echo.Context) error {
	cty, err := api.svc.GetCountry(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cty)
}

func (api *catalogApi) updateCountry(ctx echo.Context) error {
	var data catalog.UpdateCountry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCountry")
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cty, err := api.svc.UpdateCountry(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cty)
}

// Requirement handlers

func (api *catalogApi) createRequirement(ctx echo.Context) error {
	var data catalog.NewRequirement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequirement")
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	req, err := api.svc.CreateRequirement(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *catalogApi) queryRequirements(ctx echo.Context) error {
	filter := new(catalog.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []catalog.Requirement{})
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	reqs, err := api.svc.QueryRequirements(ctx.Request().Context(), actor, *filter)
	if err != nil {
		return errors.Wrap(err, "querying requirements")
	}
	if reqs == nil {
		reqs = []catalog.Requirement{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *catalogApi) retrieveRequirement(ctx echo.Context) error {
	req, err := api.svc.GetRequirement(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *catalogApi) updateRequirement(ctx echo.Context) error {
	var data catalog.UpdateRequirement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRequirement")
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	req, err := api.svc.UpdateRequirement(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *catalogApi) destroyRequirement(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.DeleteRequirement(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
