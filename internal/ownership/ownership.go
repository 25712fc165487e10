// Package ownership decides whether an actor may mutate a resource.
//
// Every mutable entity reaches exactly one authorization root, the User
// that owns it, by following a fixed chain of owned-by edges. The chains are
// declared once in Chains; stores fetch a Projection holding only those edges
// and the Guard compares the resolved root against the acting user.
package ownership

import (
	"fmt"
	"strings"

	"github.com/kidtango/need2reefbackend/internal/apierror"
)

// Kind names an entity type that carries an ownership chain.
type Kind string

const (
	KindProfile          Kind = "Profile"
	KindTank             Kind = "Tank"
	KindTankImage        Kind = "TankImage"
	KindTankPost         Kind = "TankPost"
	KindTankReply        Kind = "TankReply"
	KindFeed             Kind = "Feed"
	KindFeedComment      Kind = "FeedComment"
	KindFeedCommentReply Kind = "FeedCommentReply"
)

// Edge names used in chains.
const (
	EdgeAuthor  = "author"
	EdgeProfile = "profile"
	EdgeTank    = "tank"
)

// Chain is the ordered list of edges from an entity to its root author.
type Chain []string

func (c Chain) String() string { return strings.Join(c, ".") }

// Chains maps every kind to its authorization chain.
var Chains = map[Kind]Chain{
	KindProfile:          {EdgeAuthor},
	KindTank:             {EdgeProfile, EdgeAuthor},
	KindTankImage:        {EdgeTank, EdgeProfile, EdgeAuthor},
	KindTankPost:         {EdgeAuthor},
	KindTankReply:        {EdgeAuthor},
	KindFeed:             {EdgeAuthor},
	KindFeedComment:      {EdgeAuthor},
	KindFeedCommentReply: {EdgeAuthor},
}

// Projection is the minimal view of an entity needed to walk its chain,
// e.g. {id, profile: {id, author: {id}}} for a Tank.
type Projection struct {
	ID    string
	Edges map[string]*Projection
}

// Link sets edge to a node with the given id and returns that node.
func (p *Projection) Link(edge, id string) *Projection {
	if p.Edges == nil {
		p.Edges = make(map[string]*Projection, 1)
	}
	next := &Projection{ID: id}
	p.Edges[edge] = next
	return next
}

// Root follows chain and returns the id at its end.
func (p *Projection) Root(chain Chain) (string, bool) {
	node := p
	for _, edge := range chain {
		if node == nil || node.Edges == nil {
			return "", false
		}
		node = node.Edges[edge]
	}
	if node == nil || node.ID == "" {
		return "", false
	}
	return node.ID, true
}

// Guard applies the ownership policy. The zero value uses Chains.
type Guard struct {
	chains map[Kind]Chain
}

// NewGuard returns a Guard over the given descriptors, or Chains when nil.
func NewGuard(chains map[Kind]Chain) *Guard {
	return &Guard{chains: chains}
}

// ChainFor returns the chain declared for kind.
func (g *Guard) ChainFor(kind Kind) (Chain, error) {
	chains := Chains
	if g != nil && g.chains != nil {
		chains = g.chains
	}
	chain, ok := chains[kind]
	if !ok || len(chain) == 0 {
		return nil, fmt.Errorf("no ownership chain declared for %s", kind)
	}
	return chain, nil
}

// Owns reports whether actorID is the root author of the projected entity.
// Only strict identifier equality grants ownership. It errors when kind has
// no chain or the projection does not reach the root.
func (g *Guard) Owns(kind Kind, actorID string, p *Projection) (bool, error) {
	chain, err := g.ChainFor(kind)
	if err != nil {
		return false, err
	}
	root, ok := p.Root(chain)
	if !ok {
		return false, fmt.Errorf("%s projection %q does not reach %s", kind, projectionID(p), chain)
	}
	return actorID != "" && root == actorID, nil
}

// Authorize checks that actorID may perform action on the entity id of the
// given kind. A nil projection means the entity does not exist and yields a
// not-found error before any ownership comparison.
func (g *Guard) Authorize(kind Kind, id, actorID, action string, p *Projection) error {
	if p == nil {
		return apierror.NotFound(string(kind), id)
	}
	owns, err := g.Owns(kind, actorID, p)
	if err != nil {
		return err
	}
	if !owns {
		return apierror.Forbidden(fmt.Sprintf("You don't have permission to %s this %s!", action, humanize(kind)))
	}
	return nil
}

func projectionID(p *Projection) string {
	if p == nil {
		return ""
	}
	return p.ID
}

// humanize turns "FeedCommentReply" into "feed comment reply".
func humanize(kind Kind) string {
	var b strings.Builder
	for i, r := range string(kind) {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte(' ')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
