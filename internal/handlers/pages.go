package handlers

import (
	"github.com/dimitrije/unity-admin/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

// Placeholder screens of the admin area.
var (
	dashboardPage = dto.PageResponse{Title: "Dashboard", Message: "Welcome to the Unity School Admin Dashboard"}
	settingsPage  = dto.PageResponse{Title: "Settings", Message: "Configure Unity School settings here"}
	usersPage     = dto.PageResponse{Title: "User Management", Message: "Manage Unity School users here"}
)

type PagesHandler struct{}

func NewPagesHandler() *PagesHandler {
	return &PagesHandler{}
}

func (h *PagesHandler) Dashboard(c *drift.Context) {
	_ = c.JSON(200, dashboardPage)
}

func (h *PagesHandler) Settings(c *drift.Context) {
	_ = c.JSON(200, settingsPage)
}

func (h *PagesHandler) Users(c *drift.Context) {
	_ = c.JSON(200, usersPage)
}
