package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"txrmwatch/internal/daemon"
	"txrmwatch/internal/logging"
	"txrmwatch/internal/registry"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	shutdown func()
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	server := &Server{
		path:     path,
		daemon:   d,
		logger:   logger,
		listener: listener,
		ctx:      serverCtx,
		cancel:   cancel,
	}

	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName("Txrmwatch", &service{server: server}); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}
	server.rpcServer = rpcServer
	return server, nil
}

// OnShutdown registers a callback invoked when a client requests daemon
// shutdown. Typically wired to the process signal-context cancel.
func (s *Server) OnShutdown(fn func()) {
	s.mu.Lock()
	s.shutdown = fn
	s.mu.Unlock()
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	server *Server
}

func (s *service) log() *slog.Logger {
	return logging.WithComponent(s.server.logger, "ipc")
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Info("daemon stop requested")
	s.server.mu.Lock()
	shutdown := s.server.shutdown
	s.server.mu.Unlock()
	if shutdown != nil {
		go shutdown()
	} else {
		s.server.daemon.Stop()
	}
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.server.daemon.Status(s.server.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.Directories = status.Directories
	resp.NextScanIn = status.NextScanIn
	resp.Total = status.Health.Total
	resp.Pending = status.Health.Pending
	resp.Processing = status.Health.Processing
	resp.Completed = status.Health.Completed
	resp.Errored = status.Health.Errored
	resp.RegistryDB = status.RegistryDB
	resp.LockFile = status.LockFile
	resp.LastError = status.LastError
	return nil
}

func (s *service) Snapshot(_ SnapshotRequest, resp *SnapshotResponse) error {
	files, err := s.server.daemon.Snapshot(s.server.ctx)
	if err != nil {
		return err
	}
	resp.Files = make([]TrackedFile, 0, len(files))
	for _, file := range files {
		if file == nil {
			continue
		}
		resp.Files = append(resp.Files, convertTrackedFile(file))
	}
	return nil
}

func (s *service) ProcessNow(req ProcessNowRequest, resp *ProcessNowResponse) error {
	if req.Path == "" {
		return errors.New("path is required")
	}
	if err := s.server.daemon.ProcessNow(s.server.ctx, req.Path); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "processing started"
	return nil
}

func (s *service) ScanNow(_ ScanNowRequest, resp *ScanNowResponse) error {
	s.server.daemon.TriggerScan()
	resp.Triggered = true
	return nil
}

func (s *service) GetDirectories(_ DirectoriesRequest, resp *DirectoriesResponse) error {
	resp.Directories = s.server.daemon.Directories()
	return nil
}

func (s *service) SetDirectories(req SetDirectoriesRequest, resp *SetDirectoriesResponse) error {
	if err := s.server.daemon.SetDirectories(req.Directories); err != nil {
		return err
	}
	resp.Directories = s.server.daemon.Directories()
	return nil
}

func (s *service) Events(req EventsRequest, resp *EventsResponse) error {
	list, next, err := s.server.daemon.Events(s.server.ctx, req.Since, req.Limit, req.Wait)
	if err != nil {
		return err
	}
	resp.Events = list
	resp.Next = next
	return nil
}

func convertTrackedFile(file *registry.TrackedFile) TrackedFile {
	return TrackedFile{
		Path:         file.Path,
		Size:         file.Size,
		Status:       string(file.Status),
		Message:      file.Message,
		ErrorMessage: file.ErrorMessage,
		LastChangeAt: file.LastChangeAt.Format("2006-01-02 15:04:05"),
	}
}
