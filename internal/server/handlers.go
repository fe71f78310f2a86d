package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"snapsync/internal/config"
	"snapsync/internal/jobs"
	"snapsync/internal/snap"
)

// getConfig handles GET /config.
func (s *Server) getConfig(c *gin.Context) {
	cfg, err := s.cfgManager.Load()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"configured":              s.cfgManager.Exists() && cfg.Configured(),
		config.KeyS3Bucket:        cfg.S3Bucket,
		config.KeyLocalImportBase: cfg.LocalImportBase,
		config.KeyS3StorageClass:  cfg.S3StorageClass,
		config.KeyS3PrefixRaw:     cfg.S3PrefixRaw,
		config.KeyS3PrefixJPG:     cfg.S3PrefixJPG,
		config.KeyAWSRegion:       cfg.AWSRegion,
	})
}

// postConfig handles POST /config: a partial key/value object merged into
// the stored config.
func (s *Server) postConfig(c *gin.Context) {
	var partial map[string]string
	if err := c.ShouldBindJSON(&partial); err != nil {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("invalid config body: %w", err))
		return
	}
	if _, err := s.cfgManager.Merge(partial); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// getVolumes handles GET /volumes.
func (s *Server) getVolumes(c *gin.Context) {
	cfg, err := s.cfgManager.Load()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, s.listVols(cfg.LocalImportBase))
}

// ImportRequest is the POST /import body.
type ImportRequest struct {
	SourcePath string `json:"sourcePath" binding:"required"`
	ImportDate string `json:"importDate"`
	DryRun     bool   `json:"dryRun"`
}

// postImport handles POST /import. The import itself is synchronous; the
// follow-on upload of the destination folder runs as a tracked background
// job, the same contract as POST /upload.
func (s *Server) postImport(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("invalid import body: %w", err))
		return
	}

	svc, err := s.buildService(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	var output strings.Builder
	result, err := svc.Import(c.Request.Context(), snap.ImportRequest{
		SourceVolume: req.SourcePath,
		Date:         req.ImportDate,
		DryRun:       req.DryRun,
	}, outputCollector(&output))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
			"output":  output.String(),
		})
		return
	}

	fmt.Fprintf(&output, "imported %d file(s), skipped %d\n", result.ImportedCount, result.SkippedCount)

	resp := gin.H{"success": true, "output": output.String()}
	if result.FollowUpUpload(req.DryRun) {
		uploadID, err := s.startUploadJob(jobs.Params{SourcePath: result.DestDir, DryRun: req.DryRun})
		if err != nil {
			s.fail(c, http.StatusInternalServerError, err)
			return
		}
		resp["uploadId"] = uploadID
	}
	c.JSON(http.StatusOK, resp)
}

// UploadRequest is the POST /upload body.
type UploadRequest struct {
	SourcePath string `json:"sourcePath" binding:"required"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	DryRun     bool   `json:"dryRun"`
}

// postUpload handles POST /upload: precondition checks fail fast, then the
// job id is returned immediately while the upload runs in the background.
func (s *Server) postUpload(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("invalid upload body: %w", err))
		return
	}

	info, err := os.Stat(req.SourcePath)
	if err != nil {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("source directory not accessible: %w", err))
		return
	}
	if !info.IsDir() {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("source is not a directory: %s", req.SourcePath))
		return
	}

	id, err := s.startUploadJob(jobs.Params{
		SourcePath: req.SourcePath,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		DryRun:     req.DryRun,
	})
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploadId": id, "status": string(jobs.StatusRunning)})
}

// startUploadJob wires a Service from the current config and hands the
// upload to the tracker. The job context is independent of the request
// context: the upload must outlive the HTTP exchange.
func (s *Server) startUploadJob(params jobs.Params) (string, error) {
	return s.tracker.Start(params, func(ctx context.Context, fn snap.ProgressFunc) error {
		svc, err := s.buildService(ctx)
		if err != nil {
			return err
		}
		_, err = svc.Upload(ctx, snap.UploadRequest{
			SourceDir: params.SourcePath,
			StartDate: params.StartDate,
			EndDate:   params.EndDate,
			DryRun:    params.DryRun,
		}, fn)
		return err
	})
}

// listUploads handles GET /uploads.
func (s *Server) listUploads(c *gin.Context) {
	c.JSON(http.StatusOK, s.tracker.List())
}

// getUpload handles GET /uploads/:id.
func (s *Server) getUpload(c *gin.Context) {
	rec, ok := s.tracker.Get(c.Param("id"))
	if !ok {
		s.fail(c, http.StatusNotFound, fmt.Errorf("upload %s not found", c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, rec)
}

// stopUpload handles POST /uploads/:id/stop.
func (s *Server) stopUpload(c *gin.Context) {
	if err := s.tracker.Stop(c.Param("id")); err != nil {
		s.fail(c, http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// checkAWS handles GET /check-aws.
func (s *Server) checkAWS(c *gin.Context) {
	cfg, err := s.cfgManager.Load()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	checker, err := s.identity(c.Request.Context(), cfg)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"configured": false, "error": err.Error()})
		return
	}
	identity, err := checker.CheckIdentity(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"configured": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"configured": true, "identity": identity})
}

func (s *Server) buildService(ctx context.Context) (*snap.Service, error) {
	cfg, err := s.cfgManager.Load()
	if err != nil {
		return nil, err
	}
	return s.services(ctx, cfg)
}

// outputCollector renders progress events as the line-based log the UI
// shows for synchronous imports.
func outputCollector(out *strings.Builder) snap.ProgressFunc {
	return func(ev snap.ProgressEvent) {
		switch ev.Kind {
		case snap.ProgressScanned:
			fmt.Fprintf(out, "%d files to process\n", ev.Total)
		case snap.ProgressImported:
			fmt.Fprintf(out, "imported: %s\n", ev.File)
		case snap.ProgressUploaded:
			fmt.Fprintf(out, "uploaded: %s\n", ev.File)
		case snap.ProgressSkipped:
			fmt.Fprintf(out, "skipped: %s (%s)\n", ev.File, ev.Reason)
		}
	}
}
