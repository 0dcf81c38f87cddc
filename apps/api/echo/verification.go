package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kmutombo/veridoc/core"
	"github.com/kmutombo/veridoc/core/user"
	"github.com/kmutombo/veridoc/core/verification"
)

type verificationApi struct {
	svc    verification.Service
	usrSvc user.Service
}

func registerVerificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc verification.Service, usrSvc user.Service) {
	api := verificationApi{svc: svc, usrSvc: usrSvc}

	vg := g.Group("/verification-requests", jwt)
	vg.POST("", api.create)
	vg.GET("", api.query)
	vg.GET("/:id", api.retrieve)
	vg.PUT("/:id/assign", api.assign, directorMiddleware())
	vg.POST("/:id/documents", api.resubmit)

	dg := g.Group("/documents", jwt)
	dg.PUT("/:id/review", api.review, staffMiddleware())
}

// Handlers

func (api *verificationApi) create(ctx echo.Context) error {
	var data verification.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	req, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *verificationApi) query(ctx echo.Context) error {
	filter := new(verification.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []verification.Request{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, "status", "country_id", "created_at", "updated_at")
	page := new(Page)
	page.Bind(ctx)

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	reqs, err := api.svc.Query(ctx.Request().Context(), actor, filter, page.Pagination, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying verification requests")
	}
	if reqs == nil {
		reqs = []verification.Request{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *verificationApi) retrieve(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	req, err := api.svc.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *verificationApi) assign(ctx echo.Context) error {
	var data AssignRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	req, err := api.svc.Assign(ctx.Request().Context(), actor, ctx.Param("id"), data.AssignedToID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *verificationApi) resubmit(ctx echo.Context) error {
	var data verification.ResubmitDocument
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResubmitDocument")
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	doc, err := api.svc.Resubmit(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, doc)
}

func (api *verificationApi) review(ctx echo.Context) error {
	var data verification.ReviewDocument
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewDocument")
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	doc, err := api.svc.Review(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, doc)
}

type AssignRequest struct {
	AssignedToID string `json:"assigned_to_id" validate:"required,uuid4"`
}

func (ar *AssignRequest) Validate() error {
	ar.AssignedToID = core.CleanString(ar.AssignedToID)
	return core.Validate.Struct(ar)
}
