package postgrest

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TokenManager holds the bearer token sent with every request.
// With a token command the token is fetched from it and refreshed
// periodically; otherwise the static token never changes.
type TokenManager struct {
	mu              sync.RWMutex
	token           string
	lastRefresh     time.Time
	refreshInterval time.Duration
	command         string
	logger          *zap.Logger
	cancel          context.CancelFunc

	// run executes the token command; replaced in tests
	run func(ctx context.Context, command string) (string, error)
}

// NewStaticTokenManager returns a manager that always hands out token
func NewStaticTokenManager(token string, logger *zap.Logger) *TokenManager {
	return &TokenManager{token: token, logger: logger}
}

// NewTokenManager creates a manager that obtains tokens by running command
func NewTokenManager(refreshInterval time.Duration, command string, logger *zap.Logger) *TokenManager {
	return &TokenManager{
		refreshInterval: refreshInterval,
		command:         command,
		logger:          logger,
		run:             runTokenCommand,
	}
}

// Start fetches the initial token and starts automatic refresh
func (tm *TokenManager) Start(ctx context.Context) error {
	if tm.command == "" {
		return nil
	}

	if err := tm.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to get initial token: %w", err)
	}

	if tm.refreshInterval > 0 {
		loopCtx, cancel := context.WithCancel(ctx)
		tm.cancel = cancel
		go tm.refreshLoop(loopCtx)
	}

	tm.logger.Info("Token manager started",
		zap.Duration("refresh_interval", tm.refreshInterval))

	return nil
}

// Stop stops the token manager
func (tm *TokenManager) Stop() {
	if tm.cancel != nil {
		tm.cancel()
		tm.logger.Info("Token manager stopped")
	}
}

// GetToken returns current token
func (tm *TokenManager) GetToken() (string, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if tm.token == "" {
		return "", fmt.Errorf("token not available")
	}

	return tm.token, nil
}

// Refresh runs the token command. On failure an existing token stays in
// use so a running daemon keeps working until the next attempt.
func (tm *TokenManager) Refresh(ctx context.Context) error {
	if tm.command == "" {
		return nil
	}

	token, err := tm.run(ctx, tm.command)
	if err != nil {
		tm.logger.Error("Failed to refresh access token", zap.Error(err))

		tm.mu.RLock()
		hasExistingToken := tm.token != ""
		tm.mu.RUnlock()

		if hasExistingToken {
			tm.logger.Warn("Continuing with existing token despite refresh failure")
			return nil
		}

		return err
	}

	now := time.Now()

	tm.mu.Lock()
	tm.token = token
	tm.lastRefresh = now
	tm.mu.Unlock()

	tm.logger.Info("Access token refreshed", zap.Time("last_refresh", now))

	return nil
}

// GetLastRefreshTime returns the last time token was refreshed
func (tm *TokenManager) GetLastRefreshTime() time.Time {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.lastRefresh
}

// refreshLoop periodically refreshes the token
func (tm *TokenManager) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(tm.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := tm.Refresh(ctx); err != nil {
				tm.logger.Error("Failed to refresh token in background",
					zap.Error(err))
			}
		}
	}
}

func runTokenCommand(ctx context.Context, command string) (string, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return "", fmt.Errorf("empty token command")
	}

	output, err := exec.CommandContext(ctx, parts[0], parts[1:]...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("token command failed: %s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("failed to execute token command: %w", err)
	}

	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", fmt.Errorf("empty token received from command")
	}

	return token, nil
}
