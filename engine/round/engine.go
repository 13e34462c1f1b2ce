// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

import (
	"time"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
)

// Engine drives a single era's round/echo/vote state machine. It is
// single-threaded: callers serialize HandleMessage, HandleTimer,
// Propose, ResolveValidity, ActivateValidator, SetPaused and MarkFaulty
// against each other, and every side effect comes back as a
// ProtocolOutcome rather than being performed inline.
type Engine struct {
	era     *Era
	crypto  Crypto
	log     log.Logger
	metrics *EngineMetrics
}

// NewEngine constructs an Engine over era, using crypto to sign and
// verify and logger for diagnostics.
func NewEngine(era *Era, crypto Crypto, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Engine{era: era, crypto: crypto, log: logger}
}

// Era exposes the engine's underlying era state, mainly for snapshotting.
func (eng *Engine) Era() *Era { return eng.era }

// ActivateValidator makes idx this node's signing identity within the
// era, enabling Propose and automatic echo/vote participation.
func (eng *Engine) ActivateValidator(idx ValidatorIndex) {
	eng.era.ActiveValidator = idx
	eng.era.HasActiveValidator = true
}

// SetPaused toggles whether this node participates in the consensus
// protocol while still tracking it (used around era boundaries).
func (eng *Engine) SetPaused(paused bool) {
	eng.era.Paused = paused
}

// MarkFaulty records idx as faulty outright (e.g. an operator ban),
// purging its prior echoes/votes and re-evaluating every round's
// quorum. Returns the outcomes triggered by the resulting cascade.
func (eng *Engine) MarkFaulty(idx ValidatorIndex) []ProtocolOutcome {
	eng.era.Faults.Ban(idx)
	return eng.purgeAndRecheck(idx)
}

func (eng *Engine) purgeAndRecheck(idx ValidatorIndex) []ProtocolOutcome {
	for _, r := range eng.era.Rounds {
		r.PurgeValidator(idx)
	}
	var out []ProtocolOutcome
	faultyWeight := eng.era.FaultyWeight()
	if faultyWeight > eng.era.Ftt {
		out = append(out, fttExceeded(faultyWeight, eng.era.TotalWeight))
	}
	for id := range eng.era.Rounds {
		out = append(out, eng.recheckRound(id)...)
	}
	return out
}

// HandleMessage processes an incoming signed message from a peer,
// applying the reject/drop rules of SPEC_FULL.md section 4.2.2 before
// recording its content and re-evaluating quorum.
func (eng *Engine) HandleMessage(msg SignedMessage, signerNode ids.NodeID, signerKey *bls.PublicKey) []ProtocolOutcome {
	if eng.era.Paused {
		return nil
	}
	if int(msg.ValidatorIndex) >= len(eng.era.ValidatorIDs) {
		return []ProtocolOutcome{invalidIncoming(msg.ValidatorIndex, "validator index out of range")}
	}
	// Known-faulty senders are dropped outright, except proposals: those
	// still go through so equivocation-aware acceptance keeps working.
	if msg.Content.Kind != ContentProposal && eng.era.Faults.IsFaulty(msg.ValidatorIndex) {
		return nil
	}
	preimage := Preimage(msg.RoundID, msg.InstanceID, msg.Content, msg.ValidatorIndex)
	if eng.crypto != nil && !eng.crypto.Verify(preimage, msg.Signature, signerNode, signerKey) {
		return []ProtocolOutcome{invalidIncoming(msg.ValidatorIndex, "signature verification failed")}
	}
	if msg.InstanceID != eng.era.InstanceID {
		return []ProtocolOutcome{invalidIncoming(msg.ValidatorIndex, "wrong instance id")}
	}
	if msg.RoundID > eng.era.CurrentRound()+MaxFutureRounds {
		return nil
	}

	r := eng.era.round(msg.RoundID)
	if r.Contains(msg.Content, msg.ValidatorIndex) {
		return nil
	}

	if equivocation, prior, ok := eng.detectEquivocation(r, msg); ok {
		out := []ProtocolOutcome{}
		if eng.era.Faults.RecordDirect(msg.ValidatorIndex, prior, msg) {
			out = append(out, newEvidence(msg.ValidatorIndex, Fault{Kind: FaultDirect, Msg0: prior, Msg1: msg}))
			out = append(out, eng.purgeAndRecheck(msg.ValidatorIndex)...)
		}
		_ = equivocation
		return out
	}

	eng.insert(r, msg)

	var out []ProtocolOutcome
	if msg.Content.Kind == ContentProposal {
		out = append(out, eng.onProposal(msg.RoundID, msg)...)
	}
	out = append(out, eng.recheckRound(msg.RoundID)...)
	return out
}

// detectEquivocation reports whether msg conflicts with a
// previously-recorded message from the same validator in the same
// round, returning the prior message for evidence if so.
func (eng *Engine) detectEquivocation(r *Round, msg SignedMessage) (equivocation bool, prior SignedMessage, ok bool) {
	switch msg.Content.Kind {
	case ContentProposal:
		if hash, found := r.ProposalFrom(msg.ValidatorIndex); found && hash != ProposalHash(msg.Content.Proposal) {
			rec := r.Proposals[hash]
			return true, SignedMessage{
				RoundID: msg.RoundID, InstanceID: msg.InstanceID,
				Content: ProposalContent(rec.Proposal), ValidatorIndex: msg.ValidatorIndex, Signature: rec.Signature,
			}, true
		}
	case ContentEcho:
		if hash, found := r.EchoedBy(msg.ValidatorIndex); found && hash != msg.Content.Echo {
			sig := r.Echoes[hash][msg.ValidatorIndex]
			return true, SignedMessage{
				RoundID: msg.RoundID, InstanceID: msg.InstanceID,
				Content: EchoContent(hash), ValidatorIndex: msg.ValidatorIndex, Signature: sig,
			}, true
		}
	case ContentVote:
		if v, found := r.VotedBy(msg.ValidatorIndex); found && v != msg.Content.Vote {
			i := 0
			if v {
				i = 1
			}
			sig := r.Votes[i][msg.ValidatorIndex]
			return true, SignedMessage{
				RoundID: msg.RoundID, InstanceID: msg.InstanceID,
				Content: VoteContent(v), ValidatorIndex: msg.ValidatorIndex, Signature: sig,
			}, true
		}
	}
	return false, SignedMessage{}, false
}

func (eng *Engine) insert(r *Round, msg SignedMessage) {
	switch msg.Content.Kind {
	case ContentProposal:
		r.InsertProposal(ProposalHash(msg.Content.Proposal), ProposalRecord{
			Proposal: msg.Content.Proposal, Signature: msg.Signature, Sender: msg.ValidatorIndex,
		})
	case ContentEcho:
		r.InsertEcho(msg.Content.Echo, msg.ValidatorIndex, msg.Signature)
	case ContentVote:
		r.InsertVote(msg.Content.Vote, msg.ValidatorIndex, msg.Signature)
	}
}

// onProposal parks a freshly-received proposal awaiting its parent or
// forwards it for external validation, per SPEC_FULL.md section 4.2.2
// steps 1-4.
func (eng *Engine) onProposal(roundID RoundID, msg SignedMessage) []ProtocolOutcome {
	p := msg.Content.Proposal
	if p.HasParent {
		if _, accepted := eng.acceptedHeight(p.ParentRoundID); !accepted {
			eng.era.AwaitingParent[p.ParentRoundID] = append(eng.era.AwaitingParent[p.ParentRoundID], awaitingParent{msg: msg})
			return nil
		}
	}
	if p.IsDummy() {
		return eng.autoEcho(roundID, ProposalHash(p))
	}
	eng.era.AwaitingValidation[roundID] = awaitingValidation{msg: msg}
	return []ProtocolOutcome{validateConsensusValue(roundID, p.Block, BlockContext{Timestamp: p.Timestamp})}
}

// ResolveValidity is called once an external block validator finishes
// checking a block handed out via OutcomeValidateConsensusValue.
func (eng *Engine) ResolveValidity(roundID RoundID, valid bool) []ProtocolOutcome {
	pending, ok := eng.era.AwaitingValidation[roundID]
	if !ok {
		return nil
	}
	delete(eng.era.AwaitingValidation, roundID)
	if !valid {
		return []ProtocolOutcome{invalidIncoming(pending.msg.ValidatorIndex, "block failed external validation")}
	}
	return eng.autoEcho(roundID, ProposalHash(pending.msg.Content.Proposal))
}

// autoEcho casts this node's own echo for hash in roundID, if it is an
// active, unsuppressed validator that hasn't already echoed.
func (eng *Engine) autoEcho(roundID RoundID, hash Hash) []ProtocolOutcome {
	if !eng.era.HasActiveValidator || eng.era.Paused {
		return nil
	}
	r := eng.era.round(roundID)
	if _, already := r.EchoedBy(eng.era.ActiveValidator); already {
		return nil
	}
	return eng.sign(roundID, EchoContent(hash))
}

// Propose builds and gossips a new proposal for roundID, used by the
// leader on TimerRound.
func (eng *Engine) Propose(roundID RoundID, block Block, ctx BlockContext, parentRoundID RoundID, hasParent bool) []ProtocolOutcome {
	if !eng.era.HasActiveValidator || eng.era.Paused {
		return nil
	}
	p := Proposal{Timestamp: ctx.Timestamp, Block: block, HasParent: hasParent, ParentRoundID: parentRoundID}
	eng.era.PendingProposalRounds.Add(roundID)
	return eng.sign(roundID, ProposalContent(p))
}

// Vote casts this node's vote for roundID.
func (eng *Engine) Vote(roundID RoundID, v bool) []ProtocolOutcome {
	if !eng.era.HasActiveValidator || eng.era.Paused {
		return nil
	}
	r := eng.era.round(roundID)
	if _, already := r.VotedBy(eng.era.ActiveValidator); already {
		return nil
	}
	return eng.sign(roundID, VoteContent(v))
}

// sign builds, records, and gossips a SignedMessage from this node's
// active validator identity.
func (eng *Engine) sign(roundID RoundID, content Content) []ProtocolOutcome {
	idx := eng.era.ActiveValidator
	preimage := Preimage(roundID, eng.era.InstanceID, content, idx)
	var sig Signature
	if eng.crypto != nil {
		s, err := eng.crypto.Sign(preimage)
		if err != nil {
			eng.log.Error("failed to sign consensus message", "err", err)
			return nil
		}
		sig = s
	}
	msg := SignedMessage{RoundID: roundID, InstanceID: eng.era.InstanceID, Content: content, ValidatorIndex: idx, Signature: sig}
	eng.insert(eng.era.round(roundID), msg)
	out := []ProtocolOutcome{gossip(msg)}
	if content.Kind == ContentProposal {
		out = append(out, eng.onProposal(roundID, msg)...)
	}
	out = append(out, eng.recheckRound(roundID)...)
	return out
}

// recheckRound recomputes the round's cached quorum predicates, then
// re-evaluates acceptance — both for id and for every other round still
// awaiting acceptance, since a skip-quorum or a parent's acceptance can
// unblock a later round even though only id's tally just changed (per
// SPEC_FULL.md section 4.2.2: "re-check_proposal future rounds").
func (eng *Engine) recheckRound(id RoundID) []ProtocolOutcome {
	r, ok := eng.era.Rounds[id]
	if !ok {
		return nil
	}
	var out []ProtocolOutcome
	faultyWeight := eng.era.FaultyWeight()

	if r.Outcome.QuorumEchoes == nil {
		for hash := range r.Echoes {
			w := r.echoWeight(hash, eng.era.Weight) + faultyWeight
			if IsQuorum(w, eng.era.TotalWeight, eng.era.Ftt) {
				h := hash
				r.Outcome.QuorumEchoes = &h
				break
			}
		}
	}

	if r.Outcome.QuorumVotes == nil {
		trueW := r.voteWeight(true, eng.era.Weight) + faultyWeight
		falseW := r.voteWeight(false, eng.era.Weight) + faultyWeight
		switch {
		case IsQuorum(trueW, eng.era.TotalWeight, eng.era.Ftt):
			v := true
			r.Outcome.QuorumVotes = &v
		case IsQuorum(falseW, eng.era.TotalWeight, eng.era.Ftt):
			v := false
			r.Outcome.QuorumVotes = &v
		}
	}

	out = append(out, eng.checkProposal(id)...)
	for otherID, other := range eng.era.Rounds {
		if otherID == id || other.Outcome.AcceptedProposalHeight != nil {
			continue
		}
		out = append(out, eng.checkProposal(otherID)...)
	}

	out = append(out, eng.finalizeCascade()...)
	return out
}

// checkProposal implements SPEC_FULL.md section 4.2.3: round id's
// proposal is accepted once (a) its parent round is accepted, at height
// parent_height+1 (or it has no parent, at height 0), (b) quorum_echos
// matches the accepted hash, and (c) every round strictly between the
// parent and id is skippable. Acceptance is independent of id's own
// commit status: an echo-quorum alone can accept a round before any
// votes are cast (spec.md's happy-path scenario).
func (eng *Engine) checkProposal(id RoundID) []ProtocolOutcome {
	r, ok := eng.era.Rounds[id]
	if !ok || r.Outcome.AcceptedProposalHeight != nil {
		return nil
	}
	hash := r.Outcome.QuorumEchoes
	if hash == nil {
		return nil
	}
	rec, ok := r.Proposals[*hash]
	if !ok {
		return nil
	}

	var height uint64
	if rec.Proposal.HasParent {
		parentHeight, accepted := eng.acceptedHeight(rec.Proposal.ParentRoundID)
		if !accepted {
			return nil
		}
		for mid := rec.Proposal.ParentRoundID + 1; mid < id; mid++ {
			mr, ok := eng.era.Rounds[mid]
			if !ok || !mr.Outcome.Skippable() {
				return nil
			}
		}
		height = parentHeight + 1
	}

	h := height
	r.Outcome.AcceptedProposalHeight = &h
	eng.era.PendingProposalRounds.Remove(id)
	if !eng.era.HasAcceptedRound || id > eng.era.LastAcceptedRound {
		eng.era.HasAcceptedRound = true
		eng.era.LastAcceptedRound = id
	}

	var out []ProtocolOutcome
	if eng.era.HasActiveValidator && !eng.era.Paused {
		if _, voted := r.VotedBy(eng.era.ActiveValidator); !voted {
			out = append(out, eng.Vote(id, true)...)
		}
	}
	out = append(out, eng.unparkChildren(id)...)
	return out
}

// finalizeCascade advances first_non_finalized_round_id as far as
// consecutive committed-and-accepted rounds reach, emitting one
// OutcomeFinalizedBlock per round. It re-scans from the current
// first_non_finalized_round_id on every call rather than trusting the
// triggering round alone, so a round that commits out of order doesn't
// strand an already-accepted later round behind it.
func (eng *Engine) finalizeCascade() []ProtocolOutcome {
	var out []ProtocolOutcome
	for {
		id := eng.era.FirstNonFinalizedRound
		r, ok := eng.era.Rounds[id]
		if !ok || r.Outcome.AcceptedProposalHeight == nil || !r.Outcome.Committed() {
			break
		}
		hash := r.Outcome.QuorumEchoes
		if hash == nil {
			break
		}
		rec, ok := r.Proposals[*hash]
		if !ok {
			break
		}
		eng.era.FinalizedHeight++
		out = append(out, finalizedBlock(eng.era.FinalizedHeight, rec.Proposal.Block))
		if created, ok := eng.era.RoundCreatedAt[id]; ok {
			eng.metrics.observeFinalization(float64(time.Since(created).Milliseconds()))
		}
		eng.era.FirstNonFinalizedRound = id + 1
	}
	return out
}

// unparkChildren re-delivers proposals that were waiting on id's
// acceptance now that it has happened.
func (eng *Engine) unparkChildren(id RoundID) []ProtocolOutcome {
	waiting, ok := eng.era.AwaitingParent[id]
	if !ok {
		return nil
	}
	delete(eng.era.AwaitingParent, id)
	var out []ProtocolOutcome
	for _, w := range waiting {
		out = append(out, eng.onProposal(w.msg.RoundID, w.msg)...)
	}
	return out
}

// acceptedHeight reports whether round id has an accepted proposal.
func (eng *Engine) acceptedHeight(id RoundID) (uint64, bool) {
	r, ok := eng.era.Rounds[id]
	if !ok || r.Outcome.AcceptedProposalHeight == nil {
		return 0, false
	}
	return *r.Outcome.AcceptedProposalHeight, true
}

// HandleTimer drives the engine's periodic responsibilities: proposing
// as leader, timing out a stalled proposal into a skip vote, and the
// sync/log-participation timers whose payloads are built elsewhere.
func (eng *Engine) HandleTimer(id TimerID, now time.Time, ctx BlockContext) []ProtocolOutcome {
	switch id {
	case TimerRound:
		next := eng.era.CurrentRound()
		if !eng.era.HasActiveValidator || eng.era.Paused || !eng.era.IsLeader(next, eng.era.ActiveValidator) {
			return []ProtocolOutcome{scheduleTimer(TimerRound, now.Add(eng.era.Config.MinimumRoundLength))}
		}
		out := eng.Propose(next, nil, ctx, 0, false)
		out = append(out, scheduleTimer(TimerProposalTimeout, now.Add(eng.era.Config.ProposalTimeout)))
		return out
	case TimerProposalTimeout:
		next := eng.era.CurrentRound()
		if eng.acceptedOrVoted(next) {
			return nil
		}
		out := eng.Vote(next, false)
		out = append(out, scheduleTimer(TimerRound, now.Add(eng.era.Config.MinimumRoundLength)))
		return out
	case TimerLogParticipation:
		return []ProtocolOutcome{scheduleTimer(TimerLogParticipation, now.Add(eng.era.Config.LogParticipationInterval))}
	default:
		return nil
	}
}

func (eng *Engine) acceptedOrVoted(id RoundID) bool {
	if _, ok := eng.acceptedHeight(id); ok {
		return true
	}
	r, ok := eng.era.Rounds[id]
	if !ok || !eng.era.HasActiveValidator {
		return false
	}
	_, voted := r.VotedBy(eng.era.ActiveValidator)
	return voted
}
