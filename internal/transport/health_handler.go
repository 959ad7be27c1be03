// Package transport exposes gRPC/HTTP handlers.
package transport

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// HealthHandler reports whether the ingester is still importing blocks over the standard gRPC health protocol.
type HealthHandler struct {
	server  *health.Server
	service string
}

// NewHealthHandler returns a HealthHandler that starts NOT_SERVING until the ingester reports otherwise.
func NewHealthHandler(service string) *HealthHandler {
	h := &HealthHandler{
		server:  health.NewServer(),
		service: service,
	}
	h.SetServing(false)
	return h
}

// SetServing switches both the overall and the named service status.
func (h *HealthHandler) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(h.service, status)
}

// Register attaches the health service to a gRPC server.
func (h *HealthHandler) Register(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, h.server)
}

// Shutdown marks every service NOT_SERVING and ignores later updates.
func (h *HealthHandler) Shutdown() {
	h.server.Shutdown()
}
