package handlers

import (
	"net/http"
	"time"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/middleware"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/services"
	"github.com/gin-gonic/gin"
)

type ProposalHandler struct {
	proposalService *services.ProposalService
}

func NewProposalHandler(proposalService *services.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposalService: proposalService}
}

// CreateProposal adds a trip proposal to a room
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type CreateProposalRequest struct {
		Destination string    `json:"destination" binding:"required"`
		Description string    `json:"description"`
		StartDate   time.Time `json:"start_date" binding:"required"`
		EndDate     time.Time `json:"end_date" binding:"required"`
		Budget      *float64  `json:"budget"`
	}

	var req CreateProposalRequest
	if !bindJSON(c, &req) {
		return
	}

	proposal, err := h.proposalService.CreateProposal(c.Request.Context(), middleware.IDParam(c, "id"), userID, services.ProposalInput{
		Destination: req.Destination,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, proposal)
}

// ListProposals returns the proposals of a room with their votes and activities
func (h *ProposalHandler) ListProposals(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	proposals, err := h.proposalService.ListProposals(c.Request.Context(), middleware.IDParam(c, "id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// GetProposal returns a single proposal
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	proposal, err := h.proposalService.GetProposal(c.Request.Context(), middleware.IDParam(c, "id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, proposal)
}

// UpdateProposal edits a proposal
func (h *ProposalHandler) UpdateProposal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type UpdateProposalRequest struct {
		Destination *string    `json:"destination"`
		Description *string    `json:"description"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
		Budget      *float64   `json:"budget"`
		ClearBudget bool       `json:"clear_budget"`
	}

	var req UpdateProposalRequest
	if !bindJSON(c, &req) {
		return
	}

	proposal, err := h.proposalService.UpdateProposal(c.Request.Context(), middleware.IDParam(c, "id"), userID, services.UpdateProposalInput{
		Destination: req.Destination,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
		ClearBudget: req.ClearBudget,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, proposal)
}

// DeleteProposal deletes a proposal. Admins only.
func (h *ProposalHandler) DeleteProposal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.proposalService.DeleteProposal(c.Request.Context(), middleware.IDParam(c, "id"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Proposal deleted successfully"})
}

// SelectProposal marks a proposal as the room's selected trip. Admins only.
func (h *ProposalHandler) SelectProposal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	proposal, err := h.proposalService.SelectProposal(c.Request.Context(), middleware.IDParam(c, "id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, proposal)
}

type voteRequest struct {
	Vote models.VoteValue `json:"vote" binding:"required"`
}

// Vote records or replaces the current user's vote
func (h *ProposalHandler) Vote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req voteRequest
	if !bindJSON(c, &req) {
		return
	}

	vote, err := h.proposalService.VoteOnProposal(c.Request.Context(), middleware.IDParam(c, "id"), userID, req.Vote)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, vote)
}

// UpdateVote changes an existing vote of the current user
func (h *ProposalHandler) UpdateVote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req voteRequest
	if !bindJSON(c, &req) {
		return
	}

	vote, err := h.proposalService.UpdateVote(c.Request.Context(), middleware.IDParam(c, "id"), userID, req.Vote)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, vote)
}

// DeleteVote withdraws the current user's vote
func (h *ProposalHandler) DeleteVote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.proposalService.DeleteVote(c.Request.Context(), middleware.IDParam(c, "id"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vote deleted successfully"})
}

// ListVotes returns the raw votes of a proposal
func (h *ProposalHandler) ListVotes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	votes, err := h.proposalService.ListVotes(c.Request.Context(), middleware.IDParam(c, "id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"votes": votes})
}

// CreateActivity suggests an activity for a proposal
func (h *ProposalHandler) CreateActivity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type CreateActivityRequest struct {
		Title         string   `json:"title" binding:"required"`
		Description   string   `json:"description"`
		Location      string   `json:"location"`
		EstimatedCost *float64 `json:"estimated_cost"`
	}

	var req CreateActivityRequest
	if !bindJSON(c, &req) {
		return
	}

	activity, err := h.proposalService.CreateActivity(c.Request.Context(), middleware.IDParam(c, "id"), userID, services.ActivityInput{
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		EstimatedCost: req.EstimatedCost,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, activity)
}

// ListActivities returns the activities suggested for a proposal
func (h *ProposalHandler) ListActivities(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	activities, err := h.proposalService.ListActivities(c.Request.Context(), middleware.IDParam(c, "id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

// UpdateActivity edits an activity. Its author or a room admin only.
func (h *ProposalHandler) UpdateActivity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type UpdateActivityRequest struct {
		Title         *string  `json:"title"`
		Description   *string  `json:"description"`
		Location      *string  `json:"location"`
		EstimatedCost *float64 `json:"estimated_cost"`
	}

	var req UpdateActivityRequest
	if !bindJSON(c, &req) {
		return
	}

	activity, err := h.proposalService.UpdateActivity(c.Request.Context(), middleware.IDParam(c, "id"), userID, services.UpdateActivityInput{
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		EstimatedCost: req.EstimatedCost,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}

// DeleteActivity deletes an activity. Its author or a room admin only.
func (h *ProposalHandler) DeleteActivity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.proposalService.DeleteActivity(c.Request.Context(), middleware.IDParam(c, "id"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Activity deleted successfully"})
}
