package controller

import (
	"github.com/cinevault/cinevault/config"
	"github.com/cinevault/cinevault/infra"
	"github.com/cinevault/cinevault/repository"
	"github.com/cinevault/cinevault/service"
)

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository
	Service    *service.Services
}

func NewController(config *config.Config, infra *infra.Infra, repo *repository.Repository, svc *service.Services) *Controller {
	if repo == nil {
		panic("Failed to initialize Repository")
	}
	if svc == nil {
		panic("Failed to initialize Services")
	}
	return &Controller{
		Config:     config,
		Infra:      infra,
		Repository: repo,
		Service:    svc,
	}
}
