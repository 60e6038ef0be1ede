package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/access"
	"github.com/iatic/ecole/core/user"
)

type (
	registerResponse struct {
		Message string    `json:"message"`
		User    user.User `json:"user"`
	}

	loginResponse struct {
		User  user.User `json:"user"`
		Token string    `json:"token"`
	}
)

type userApi struct {
	svc  user.Service
	conf *core.Config
}

func registerUserAPI(g *echo.Group, auth echo.MiddlewareFunc, svc user.Service, conf *core.Config) {
	api := userApi{svc: svc, conf: conf}

	ag := g.Group("/auth")
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/change-password", api.changePassword, auth)

	ug := g.Group("/users", auth, requireRole(access.RoleAdmin))
	ug.GET("", api.query)
	ug.DELETE("/:id", api.destroy)

	g.GET("/students/:class", api.students, auth, requireRole(access.RoleTeacher))
	g.GET("/subjects/teacher/:teacherId", api.teacherSubject, auth, requireRole(access.RoleTeacher))
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := bindBody(ctx, &data); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, registerResponse{Message: "Inscription réussie", User: usr})
}

func (api *userApi) login(ctx echo.Context) error {
	var data user.Credentials
	if err := bindBody(ctx, &data); err != nil {
		return err
	}

	usr, err := api.svc.Login(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.conf, GetUserClaims(api.conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, loginResponse{User: usr, Token: token})
}

func (api *userApi) changePassword(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	var data user.ChangePassword
	if err = bindBody(ctx, &data); err != nil {
		return err
	}

	if err = api.svc.ChangePassword(ctx.Request().Context(), id, data); err != nil {
		return errors.Wrap(err, "changing password")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Mot de passe modifié avec succès"})
}

func (api *userApi) query(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	filter := new(user.QueryFilter)
	if err = (&echo.DefaultBinder{}).BindQueryParams(ctx, filter); err != nil {
		return errInvalidData
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, user.OrderingFields)

	users, err := api.svc.List(ctx.Request().Context(), id, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) destroy(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	userID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	if err = api.svc.Delete(ctx.Request().Context(), id, userID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Utilisateur supprimé avec succès"})
}

func (api *userApi) students(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	students, err := api.svc.ListStudents(ctx.Request().Context(), id, ctx.Param("class"))
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *userApi) teacherSubject(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	teacherID, err := pathID(ctx, "teacherId")
	if err != nil {
		return err
	}

	sub, err := api.svc.GetTeacherSubject(ctx.Request().Context(), id, teacherID)
	if err != nil {
		return errors.Wrap(err, "getting teacher subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}
