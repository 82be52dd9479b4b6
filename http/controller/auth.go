package controller

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/cinevault/cinevault/http/controller/dto"
	"github.com/cinevault/cinevault/service"
	"github.com/cinevault/cinevault/utils"
)

func (ctrl *Controller) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request body: "+err.Error())
		return
	}

	user, err := ctrl.Service.Auth.Register(ctx, service.RegisterRequest{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			utils.JSON400(c, err.Error())
		case errors.Is(err, service.ErrEmailTaken):
			utils.JSON409(c, "Email already registered")
		default:
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Auth] Failed to register user: %v", err)
			utils.JSON500(c, "Failed to register user")
		}
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Auth] Registered user %s", user.ID)
	utils.JSON201(c, dto.UserResponse{ID: user.ID.String(), Email: user.Email})
}

func (ctrl *Controller) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request body: "+err.Error())
		return
	}

	user, token, err := ctrl.Service.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			utils.JSON400(c, err.Error())
		case errors.Is(err, service.ErrUnauthorized):
			utils.JSON401(c, "Invalid email or password")
		default:
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Auth] Failed to login: %v", err)
			utils.JSON500(c, "Failed to login")
		}
		return
	}

	c.SetCookie("access_token", token, ctrl.Config.EnvConfig.JWT.Expire, "/", "", false, true)

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Auth] User %s logged in", user.ID)
	utils.JSON200(c, dto.AuthResponse{
		Token: token,
		User:  dto.UserResponse{ID: user.ID.String(), Email: user.Email},
	})
}

func (ctrl *Controller) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: "+err.Error())
		return
	}

	if err := ctrl.Service.Auth.Logout(ctx, userID); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Auth] Failed to logout user %s: %v", userID, err)
		utils.JSON500(c, "Failed to logout")
		return
	}

	c.SetCookie("access_token", "", -1, "/", "", false, true)
	utils.JSON200(c, gin.H{"message": "Logged out"})
}

func (ctrl *Controller) Me(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: "+err.Error())
		return
	}

	user, err := ctrl.Service.Auth.CurrentUser(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.JSON404(c, "User not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Auth] Failed to load user %s: %v", userID, err)
		utils.JSON500(c, "Failed to load user")
		return
	}

	utils.JSON200(c, dto.UserResponse{ID: user.ID.String(), Email: user.Email})
}
