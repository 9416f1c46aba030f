package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"log/slog"

	"docpress/internal/daemon"
	"docpress/internal/history"
	"docpress/internal/logging"
	"docpress/internal/worker"
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

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Docpress", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
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
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) ConvertStart(req ConvertStartRequest, resp *ConvertStartResponse) error {
	if strings.TrimSpace(req.Command) == "" {
		return errors.New("conversion command required")
	}
	if len(req.InputPaths) == 0 {
		return errors.New("at least one input path required")
	}

	job, err := s.daemon.StartConversion(s.ctx, worker.Request{
		Command:    req.Command,
		InputPaths: req.InputPaths,
		OutputDir:  req.OutputDir,
		Options:    req.Options,
	})
	if err != nil {
		return err
	}
	resp.Token = job.Token
	s.log().Info("conversion submitted via IPC",
		logging.String(logging.FieldJobToken, job.Token),
		logging.String(logging.FieldCommand, req.Command))
	return nil
}

func (s *service) ConvertEvents(req ConvertEventsRequest, resp *ConvertEventsResponse) error {
	if strings.TrimSpace(req.Token) == "" {
		return errors.New("job token required")
	}
	events, next, done, result, err := s.daemon.ConvertEvents(s.ctx, req.Token, req.After, req.Limit, req.Wait)
	if err != nil {
		return err
	}
	resp.Events = events
	resp.Next = next
	resp.Done = done
	resp.Result = result
	return nil
}

func (s *service) License(req LicenseRequest, resp *LicenseResponse) error {
	if strings.TrimSpace(req.Command) == "" {
		return errors.New("license command required")
	}
	outcome, err := s.daemon.RunLicense(s.ctx, req.Command, req.Args)
	if err != nil {
		return err
	}
	resp.Message = outcome.Message
	resp.Payload = outcome.Payload
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.ActiveJobs = status.ActiveJobs
	resp.HistoryDBPath = status.HistoryDBPath
	resp.LockPath = status.LockFilePath
	resp.SocketPath = status.SocketPath
	resp.LogPath = status.LogPath
	resp.PID = os.Getpid()
	if len(status.JobStats) > 0 {
		resp.JobStats = make(map[string]int, len(status.JobStats))
		for k, v := range status.JobStats {
			resp.JobStats[string(k)] = v
		}
	}
	return nil
}

func (s *service) HistoryList(req HistoryListRequest, resp *HistoryListResponse) error {
	statuses := make([]history.Status, 0, len(req.Statuses))
	for _, raw := range req.Statuses {
		parsed, ok := history.ParseStatus(raw)
		if !ok {
			return fmt.Errorf("unknown status %q", raw)
		}
		statuses = append(statuses, parsed)
	}
	jobs, err := s.daemon.HistoryList(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Jobs = make([]JobSummary, 0, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}
		resp.Jobs = append(resp.Jobs, jobSummary(job))
	}
	return nil
}

func (s *service) HistoryDescribe(req HistoryDescribeRequest, resp *HistoryDescribeResponse) error {
	if strings.TrimSpace(req.Token) == "" {
		return errors.New("job token required")
	}
	job, err := s.daemon.HistoryDescribe(s.ctx, req.Token)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %q not found", req.Token)
	}
	resp.Job = jobSummary(job)
	return nil
}

func (s *service) HistoryClear(_ HistoryClearRequest, resp *HistoryClearResponse) error {
	s.log().Debug("history clear requested")
	removed, err := s.daemon.HistoryClear(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) HistoryClearFailed(_ HistoryClearFailedRequest, resp *HistoryClearFailedResponse) error {
	s.log().Debug("history clear failed requested")
	removed, err := s.daemon.HistoryClearFailed(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}
