package ipc

import (
	"context"
	"log/slog"

	"appdeck/internal/daemon"
	"appdeck/internal/logging"
)

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	*resp = StatusResponse{
		Running:     status.Running,
		PID:         status.PID,
		LockPath:    status.LockPath,
		SocketPath:  status.SocketPath,
		StartedAt:   status.StartedAt,
		ScannedAt:   status.ScannedAt,
		RefreshedAt: status.RefreshedAt,
		Entries:     status.Entries,
		Issues:      status.Issues,
		Stats:       status.Stats,
	}
	return nil
}

func (s *service) List(req ListRequest, resp *CatalogResponse) error {
	snap, ok := s.daemon.Snapshot()
	resp.Ready = ok
	if !ok {
		return nil
	}
	if req.Search != "" {
		snap.Entries = snap.Search(req.Search)
	}
	resp.Snapshot = snap
	return nil
}

func (s *service) Scan(_ ScanRequest, resp *CatalogResponse) error {
	s.logger.Debug("scan requested via IPC")
	snap, err := s.daemon.Rescan(s.ctx)
	if err != nil {
		return err
	}
	resp.Ready = true
	resp.Snapshot = snap
	return nil
}

func (s *service) Refresh(_ RefreshRequest, resp *CatalogResponse) error {
	snap, err := s.daemon.Refresh(s.ctx)
	if err != nil {
		return err
	}
	resp.Ready = true
	resp.Snapshot = snap
	return nil
}

func (s *service) SetPath(req SetPathRequest, resp *MutationResponse) error {
	if err := s.daemon.SetPath(s.ctx, req.ID, req.Path); err != nil {
		return err
	}
	s.logger.Info("custom path set via IPC",
		logging.String(logging.FieldEventType, "custom_path_set"),
		logging.String("id", req.ID),
	)
	resp.OK = true
	return nil
}

func (s *service) ClearPath(req ClearPathRequest, resp *MutationResponse) error {
	if err := s.daemon.ClearPath(s.ctx, req.ID); err != nil {
		return err
	}
	resp.OK = true
	return nil
}

func (s *service) AddPortable(req AddPortableRequest, resp *AddPortableResponse) error {
	p, err := s.daemon.AddPortable(s.ctx, req.Name, req.Path, req.Publisher)
	if err != nil {
		return err
	}
	resp.Portable = p
	return nil
}

func (s *service) RemovePortable(req RemovePortableRequest, resp *MutationResponse) error {
	if err := s.daemon.RemovePortable(s.ctx, req.ID); err != nil {
		return err
	}
	resp.OK = true
	return nil
}

func (s *service) Portables(_ PortablesRequest, resp *PortablesResponse) error {
	portables, err := s.daemon.Portables(s.ctx)
	if err != nil {
		return err
	}
	resp.Portables = portables
	return nil
}

func (s *service) Import(req ImportRequest, resp *ImportResponse) error {
	result, err := s.daemon.Import(s.ctx, req.Manifest)
	resp.Result = result
	if err != nil {
		resp.Error = err.Error()
	}
	return nil
}
