package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/multisig-comms/src/discord"
	"github.com/stake-plus/multisig-comms/src/multisig"
)

type Calls struct {
	store   CallReader
	cursor  multisig.CursorStore
	guildID string
	render  multisig.Renderer
}

type voterView struct {
	Voter   string `json:"voter"`
	Vote    string `json:"vote"`
	Weight  string `json:"weight"`
	Display string `json:"display"`
}

type callView struct {
	CallHash  string      `json:"call_hash"`
	Thread    string      `json:"thread"`
	ThreadURL string      `json:"thread_url,omitempty"`
	Proposer  string      `json:"proposer"`
	Voters    []voterView `json:"voters"`
}

func (h *Calls) view(st multisig.CallState) callView {
	v := callView{
		CallHash: st.CallHash.String(),
		Thread:   string(st.Thread),
		Proposer: st.Proposer,
		Voters:   make([]voterView, 0, len(st.Voters)),
	}
	if h.guildID != "" {
		v.ThreadURL = discord.ThreadURL(h.guildID, st.Thread)
	}
	for _, who := range multisig.SortedVoters(st.Voters) {
		vote := st.Voters[who]
		weight := "0"
		if vote.Weight != nil {
			weight = vote.Weight.String()
		}
		v.Voters = append(v.Voters, voterView{
			Voter:   who,
			Vote:    vote.Kind.String(),
			Weight:  weight,
			Display: h.render.Scaled(vote.Weight),
		})
	}
	return v
}

func (h *Calls) Health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h.cursor != nil {
		pos, ok, err := h.cursor.Cursor(c.Request.Context())
		if err != nil {
			log.Printf("api: read cursor: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "err": "cursor unavailable"})
			return
		}
		if ok {
			resp["block"] = pos.Block
			resp["event"] = pos.Event
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Calls) List(c *gin.Context) {
	states, err := h.store.List(c.Request.Context())
	if err != nil {
		log.Printf("api: list calls: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "store unavailable"})
		return
	}
	out := make([]callView, 0, len(states))
	for _, st := range states {
		out = append(out, h.view(st))
	}
	c.JSON(http.StatusOK, gin.H{"calls": out, "count": len(out)})
}

func (h *Calls) Get(c *gin.Context) {
	hash, err := multisig.ParseCallHash(c.Param("hash"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid call hash"})
		return
	}
	st, err := h.store.Get(c.Request.Context(), hash)
	switch {
	case errors.Is(err, multisig.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"err": "no open call"})
		return
	case err != nil:
		log.Printf("api: get %s: %v", hash, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, h.view(st))
}
