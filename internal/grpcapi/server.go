// Package grpcapi serves the gacha and battle services over gRPC with
// google.protobuf.Struct payloads, plus the standard health service.
package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/gacha-battle/internal/service"
)

// Server hosts both services and the health service on one listener.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	log        *slog.Logger
}

// New listens on addr and registers every service backed by svc.
func New(addr string, svc *service.Service, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	api := &handlers{svc: svc, log: logger}
	RegisterGachaServer(grpcServer, api)
	RegisterBattleServer(grpcServer, api)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(GachaServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(BattleServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		log:        logger,
	}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve runs until ctx is cancelled, then drains in-flight calls.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	defer s.Close()

	s.log.Info("grpc server listening", "addr", s.listener.Addr().String())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

// Close stops the server immediately.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

type handlers struct {
	svc *service.Service
	log *slog.Logger
}

type pullReq struct {
	ProfileID string `json:"profile_id"`
	Count     int    `json:"count"`
}

type profileReq struct {
	ProfileID string `json:"profile_id"`
}

type battleReq struct {
	BattleID string `json:"battle_id"`
	PlayerID string `json:"player_id"`
	Card     string `json:"card"`
	Target   string `json:"target"`
}

type skipResp struct {
	Battle any `json:"battle"`
	Healed int `json:"healed"`
}

func (h *handlers) Pull(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req pullReq
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if req.ProfileID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing profile_id")
	}
	if req.Count == 0 {
		req.Count = 1
	}
	res, err := h.svc.Pull(ctx, req.ProfileID, req.Count)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return encode(res)
}

func (h *handlers) GetProfile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req profileReq
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	p, err := h.svc.GetProfile(ctx, req.ProfileID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return encode(p)
}

func (h *handlers) Start(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req service.StartRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if req.ProfileID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing profile_id")
	}
	v, err := h.svc.StartBattle(ctx, req)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return encode(v)
}

func (h *handlers) Get(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req battleReq
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	v, err := h.svc.Battle(req.BattleID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return encode(v)
}

func (h *handlers) Play(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req battleReq
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if req.PlayerID == "" || req.Card == "" {
		return nil, status.Error(codes.InvalidArgument, "missing player_id or card")
	}
	v, err := h.svc.Play(ctx, req.BattleID, req.PlayerID, req.Card, req.Target)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return encode(v)
}

func (h *handlers) Skip(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req battleReq
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if req.PlayerID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing player_id")
	}
	v, healed, err := h.svc.Skip(ctx, req.BattleID, req.PlayerID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return encode(skipResp{Battle: v, Healed: healed})
}

// toStatus converts a service error to a gRPC status.
func (h *handlers) toStatus(err error) error {
	code := service.CodeOf(err)
	c := code.GRPCCode()
	if c == codes.Internal {
		h.log.Error("grpc call failed", "err", err)
		return status.Error(c, "an unexpected error occurred")
	}
	return status.Error(c, fmt.Sprintf("%s: %v", code, err))
}

// decode maps a Struct onto v through its JSON form.
func decode(in *structpb.Struct, v any) error {
	if in == nil {
		return nil
	}
	b, err := in.MarshalJSON()
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	return nil
}

func encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}
