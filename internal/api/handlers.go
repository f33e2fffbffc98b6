package api

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"

	"github.com/idexio/idex-contracts/internal/amount"
	"github.com/idexio/idex-contracts/internal/asset"
	"github.com/idexio/idex-contracts/internal/journal"
	"github.com/idexio/idex-contracts/internal/settlement"
)

type depositRequest struct {
	Account  string `json:"account"`
	Asset    string `json:"asset"`
	Quantity string `json:"quantity"`
}

type withdrawalRequest struct {
	Account     string `json:"account"`
	Destination string `json:"destination"`
	Asset       string `json:"asset"`
	Quantity    string `json:"quantity"`
}

type acceptedResponse struct {
	ID string `json:"id"`
}

type transferResponse struct {
	ID          string    `json:"id"`
	Direction   string    `json:"direction"`
	Account     string    `json:"account"`
	Destination string    `json:"destination,omitempty"`
	Asset       string    `json:"asset"`
	Quantity    string    `json:"quantity"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type balanceResponse struct {
	Account string `json:"account"`
	Asset   string `json:"asset"`
	Balance string `json:"balance"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) handleCreateDeposit(c echo.Context) error {
	var req depositRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	account, a, quantity, err := parseTransferFields(req.Account, req.Asset, req.Quantity)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	now := time.Now().UTC()
	entry := journal.Entry{
		ID:        uuid.New(),
		Direction: journal.DirectionDeposit,
		Account:   account,
		Asset:     a,
		Quantity:  quantity,
		Status:    journal.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return s.acceptTransfer(c, entry, settlement.NewDepositTask)
}

func (s *Server) handleCreateWithdrawal(c echo.Context) error {
	var req withdrawalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	account, a, quantity, err := parseTransferFields(req.Account, req.Asset, req.Quantity)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !common.IsHexAddress(req.Destination) {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid destination address %q", req.Destination))
	}
	destination := common.HexToAddress(req.Destination)
	if destination == (common.Address{}) {
		return echo.NewHTTPError(http.StatusBadRequest, "destination must not be the zero address")
	}

	now := time.Now().UTC()
	entry := journal.Entry{
		ID:          uuid.New(),
		Direction:   journal.DirectionWithdrawal,
		Account:     account,
		Destination: destination,
		Asset:       a,
		Quantity:    quantity,
		Status:      journal.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return s.acceptTransfer(c, entry, settlement.NewWithdrawalTask)
}

// acceptTransfer journals the entry, enqueues its task and replies 202. A
// transfer that was journaled but could not be enqueued is concluded failed
// right away so it never sits pending forever.
func (s *Server) acceptTransfer(c echo.Context, entry journal.Entry, newTask func(uuid.UUID) (*asynq.Task, error)) error {
	ctx := c.Request().Context()

	if err := s.journal.Create(ctx, entry); err != nil {
		s.logger.WithError(err).Error("failed to journal transfer")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to accept transfer")
	}

	task, err := newTask(entry.ID)
	if err != nil {
		s.logger.WithError(err).Error("failed to build transfer task")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to accept transfer")
	}

	if _, err := s.queue.EnqueueContext(ctx, task, settlement.EnqueueOptions(entry.ID)...); err != nil {
		s.logger.WithError(err).Error("failed to enqueue transfer")
		if er := s.journal.MarkFailed(ctx, entry.ID, "queue_error"); er != nil {
			s.logger.WithError(er).WithField("id", entry.ID).Error("failed to conclude unqueued transfer")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to accept transfer")
	}

	return c.JSON(http.StatusAccepted, acceptedResponse{ID: entry.ID.String()})
}

func (s *Server) handleGetTransfer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid transfer id")
	}

	entry, err := s.journal.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "transfer not found")
		}
		s.logger.WithError(err).Error("failed to load transfer")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load transfer")
	}

	return c.JSON(http.StatusOK, toTransferResponse(entry))
}

func (s *Server) handleGetBalance(c echo.Context) error {
	addressStr := c.Param("address")
	if !common.IsHexAddress(addressStr) {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid account address %q", addressStr))
	}
	account := common.HexToAddress(addressStr)

	a, err := asset.Parse(c.Param("asset"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	balance, err := s.journal.BalanceOf(c.Request().Context(), account, a)
	if err != nil {
		s.logger.WithError(err).Error("failed to compute balance")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute balance")
	}

	return c.JSON(http.StatusOK, balanceResponse{
		Account: hexAddr(account),
		Asset:   a.String(),
		Balance: balance.String(),
	})
}

func parseTransferFields(accountStr, assetStr, quantityStr string) (common.Address, asset.Asset, *big.Int, error) {
	if !common.IsHexAddress(accountStr) {
		return common.Address{}, asset.Asset{}, nil, fmt.Errorf("invalid account address %q", accountStr)
	}
	account := common.HexToAddress(accountStr)

	a, err := asset.Parse(assetStr)
	if err != nil {
		return common.Address{}, asset.Asset{}, nil, err
	}

	quantity, err := amount.ParseQuantity(quantityStr)
	if err != nil {
		return common.Address{}, asset.Asset{}, nil, err
	}
	if quantity.Sign() == 0 {
		return common.Address{}, asset.Asset{}, nil, fmt.Errorf("quantity must be positive")
	}

	return account, a, quantity, nil
}

func toTransferResponse(entry journal.Entry) transferResponse {
	resp := transferResponse{
		ID:        entry.ID.String(),
		Direction: string(entry.Direction),
		Account:   hexAddr(entry.Account),
		Asset:     entry.Asset.String(),
		Quantity:  entry.Quantity.String(),
		Status:    string(entry.Status),
		Reason:    entry.Reason,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
	if entry.Destination != (common.Address{}) {
		resp.Destination = hexAddr(entry.Destination)
	}
	return resp
}

func hexAddr(address common.Address) string {
	return strings.ToLower(address.Hex())
}
