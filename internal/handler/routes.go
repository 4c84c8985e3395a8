package handler

import "github.com/gin-gonic/gin"

// Handlers bundles every HTTP handler mounted under the API prefix.
type Handlers struct {
	Terms        *TermHandler
	Placements   *PlacementHandler
	Availability *AvailabilityHandler
	Sections     *SectionHandler
	Grid         *GridHandler
}

// Register mounts the scheduling routes on group.
func (h Handlers) Register(group *gin.RouterGroup) {
	terms := group.Group("/terms")
	terms.GET("", h.Terms.List)
	terms.GET("/current", h.Terms.Current)
	terms.GET("/:id/placements", h.Placements.ListTerm)
	terms.DELETE("/:id/placements", h.Placements.ClearTerm)

	placements := group.Group("/placements")
	placements.POST("", h.Placements.Assign)
	placements.POST("/by-course", h.Placements.AssignByCourse)
	placements.DELETE("", h.Placements.Unassign)
	placements.PUT("/room", h.Placements.MoveRoom)
	placements.PUT("/instructor", h.Placements.ReassignInstructor)

	group.GET("/rooms/:name/placements", h.Placements.ListRoom)

	availability := group.Group("/availability")
	availability.GET("/rooms", h.Availability.Rooms)
	availability.GET("/instructors", h.Availability.Instructors)

	group.GET("/courses/:id/sections", h.Sections.List)
	group.POST("/courses/:id/sections/generate", h.Sections.Generate)
	group.POST("/sections", h.Sections.Create)
	group.DELETE("/sections/:id", h.Sections.Delete)

	group.GET("/grid", h.Grid.Layered)
}
