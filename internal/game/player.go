package game

// Player represents a seat at the table
type Player struct {
	ID        string
	Name      string
	Alive     bool
	GhostVote bool
}

// NewPlayer creates a living player holding a ghost vote
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Alive:     true,
		GhostVote: true,
	}
}

// Mention returns the chat mention for the player
func (p *Player) Mention() string {
	return "<@" + p.ID + ">"
}

// Kill marks the player dead. Killing a dead player is allowed.
func (p *Player) Kill() {
	p.Alive = false
}

// Resurrect brings the player back. A spent ghost vote stays spent.
func (p *Player) Resurrect() {
	p.Alive = true
}

// SpendGhostVote consumes the one vote a dead player keeps
func (p *Player) SpendGhostVote() error {
	if p.Alive {
		return ErrStillAlive
	}
	if !p.GhostVote {
		return ErrGhostVoteSpent
	}
	p.GhostVote = false
	return nil
}

func (p *Player) reset() {
	p.Alive = true
	p.GhostVote = true
}
