package handlers

import (
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, tasks *TaskHandler, users *UserHandler) {
	r.Get("/", tasks.Root)
	r.Get("/health", tasks.HealthCheck)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", tasks.ListTasks) // GET /tasks?category=&sort=position
		r.Post("/", tasks.PostTask)

		r.Patch("/order", tasks.ReorderTasks)
		r.Patch("/move", tasks.MoveTask)

		r.Route("/{id}", func(r chi.Router) {
			r.Patch("/", tasks.PatchTaskByID)
			r.Put("/", tasks.UpdateTaskByID)
			r.Delete("/", tasks.DeleteTaskByID)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", users.ListUsers)
		r.Post("/", users.PostUser)
	})
}
