package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"wisefido-attendance/internal/models"
)

const dashboardRunsPath = "/api/v1/attendance/runs"

// DashboardPayload request body pushed to the dashboard
type DashboardPayload struct {
	Summary *models.RunSummary        `json:"summary"`
	Records []models.AttendanceRecord `json:"records"`
}

// DashboardResponse 仪表盘 API 响应
type DashboardResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// DashboardClient 考勤仪表盘 API 客户端
type DashboardClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewDashboardClient 创建仪表盘客户端
func NewDashboardClient(baseURL string, timeout time.Duration, logger *zap.Logger) *DashboardClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &DashboardClient{
		httpClient: client,
		logger:     logger,
	}
}

// Notify posts the run summary and its records.
func (c *DashboardClient) Notify(ctx context.Context, summary *models.RunSummary, records []models.AttendanceRecord) error {
	var response DashboardResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(DashboardPayload{Summary: summary, Records: records}).
		SetResult(&response).
		SetError(&response).
		Post(dashboardRunsPath)
	if err != nil {
		return fmt.Errorf("failed to call dashboard API: %w", err)
	}

	if resp.IsError() {
		c.logger.Error("Dashboard API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", response.Message),
		)
		return fmt.Errorf("dashboard API error: %s (status: %d)", response.Message, resp.StatusCode())
	}

	c.logger.Info("Pushed attendance run to dashboard",
		zap.String("run_id", summary.RunID),
		zap.Int("record_count", len(records)),
	)
	return nil
}
