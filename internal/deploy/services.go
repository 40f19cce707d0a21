package deploy

import (
	"fmt"
	"time"

	"github.com/aviate-labs/agent-go"
	"github.com/aviate-labs/agent-go/identity"
	"github.com/aviate-labs/agent-go/principal"

	"github.com/stakewerk/snsctl/internal/config"
	"github.com/stakewerk/snsctl/internal/icp"
	"github.com/stakewerk/snsctl/internal/nns"
	"github.com/stakewerk/snsctl/internal/sns"
)

// Conn is a resolved replica connection: the selected network profile,
// an agent dialer, the operator identity, and the NNS canister IDs.
type Conn struct {
	Profile      config.NetworkProfile
	Dialer       *icp.Dialer
	Owner        identity.Identity
	GovernanceID principal.Principal
	LedgerID     principal.Principal
	FactoryID    principal.Principal
}

// Connect resolves the configured network and operator identity into a
// ready connection.
func Connect(cfg *config.Config) (*Conn, error) {
	prof, err := cfg.ResolveNetwork()
	if err != nil {
		return nil, err
	}
	dialer, err := icp.NewDialer(icp.DialerConfig{
		ReplicaURL:    icp.ResolveReplicaURL(prof.ReplicaURL),
		IngressExpiry: time.Duration(cfg.Network.IngressExpirySeconds) * time.Second,
		FetchRootKey:  prof.FetchRootKey,
	})
	if err != nil {
		return nil, err
	}
	owner, err := icp.DfxIdentity(cfg.Identity.DfxIdentity)
	if err != nil {
		return nil, err
	}
	governanceID, err := principal.Decode(prof.GovernanceCanister)
	if err != nil {
		return nil, fmt.Errorf("parsing governance canister ID: %w", err)
	}
	ledgerID, err := principal.Decode(prof.LedgerCanister)
	if err != nil {
		return nil, fmt.Errorf("parsing ledger canister ID: %w", err)
	}
	factoryID, err := principal.Decode(prof.SnsWasmCanister)
	if err != nil {
		return nil, fmt.Errorf("parsing SNS-W canister ID: %w", err)
	}
	return &Conn{
		Profile:      prof,
		Dialer:       dialer,
		Owner:        owner,
		GovernanceID: governanceID,
		LedgerID:     ledgerID,
		FactoryID:    factoryID,
	}, nil
}

// OwnerPrincipal returns the operator's principal.
func (c *Conn) OwnerPrincipal() principal.Principal {
	return c.Owner.Sender()
}

// Governance returns a governance client calling as id.
func (c *Conn) Governance(id identity.Identity) (*nns.Governance, error) {
	a, err := c.Dialer.Agent(id)
	if err != nil {
		return nil, err
	}
	return nns.NewGovernance(a, c.GovernanceID), nil
}

// Ledger returns an ICP ledger client calling as id.
func (c *Conn) Ledger(id identity.Identity) (*nns.Ledger, error) {
	a, err := c.Dialer.Agent(id)
	if err != nil {
		return nil, err
	}
	return nns.NewLedger(a, c.LedgerID), nil
}

// Factory returns an SNS-W client calling as the operator.
func (c *Conn) Factory() (*nns.SnsWasm, error) {
	a, err := c.Dialer.Agent(c.Owner)
	if err != nil {
		return nil, err
	}
	return nns.NewSnsWasm(a, c.FactoryID), nil
}

// Swap returns a swap client for the given canister, calling as id.
func (c *Conn) Swap(id identity.Identity, canister principal.Principal) (*sns.Swap, error) {
	a, err := c.Dialer.Agent(id)
	if err != nil {
		return nil, err
	}
	return sns.New(a, canister), nil
}

// liveServices implements Services against a real replica.
type liveServices struct {
	conn       *Conn
	ownerAgent *agent.Agent
	mintAgent  *agent.Agent
}

// NewServices builds the canister clients the pipeline needs. The
// owner and minting agents are constructed eagerly so the per-canister
// client accessors cannot fail.
func NewServices(conn *Conn) (Services, error) {
	ownerAgent, err := conn.Dialer.Agent(conn.Owner)
	if err != nil {
		return nil, err
	}
	minter, err := icp.MintingIdentity()
	if err != nil {
		return nil, err
	}
	mintAgent, err := conn.Dialer.Agent(minter)
	if err != nil {
		return nil, err
	}
	return &liveServices{
		conn:       conn,
		ownerAgent: ownerAgent,
		mintAgent:  mintAgent,
	}, nil
}

func (s *liveServices) OwnerPrincipal() principal.Principal {
	return s.conn.Owner.Sender()
}

func (s *liveServices) GovernanceID() principal.Principal {
	return s.conn.GovernanceID
}

func (s *liveServices) Governance() GovernanceService {
	return nns.NewGovernance(s.ownerAgent, s.conn.GovernanceID)
}

func (s *liveServices) OwnerLedger() LedgerService {
	return nns.NewLedger(s.ownerAgent, s.conn.LedgerID)
}

func (s *liveServices) MintingLedger() LedgerService {
	return nns.NewLedger(s.mintAgent, s.conn.LedgerID)
}

func (s *liveServices) Factory() FactoryService {
	return nns.NewSnsWasm(s.ownerAgent, s.conn.FactoryID)
}

func (s *liveServices) Swap(id principal.Principal) SwapService {
	return sns.New(s.ownerAgent, id)
}

func (s *liveServices) ParticipantLedger(seed []byte) (LedgerService, principal.Principal, error) {
	id, err := icp.SeedIdentity(seed)
	if err != nil {
		return nil, principal.Principal{}, err
	}
	a, err := s.conn.Dialer.Agent(id)
	if err != nil {
		return nil, principal.Principal{}, err
	}
	return nns.NewLedger(a, s.conn.LedgerID), id.Sender(), nil
}

func (s *liveServices) ParticipantSwap(seed []byte, canister principal.Principal) (SwapService, error) {
	id, err := icp.SeedIdentity(seed)
	if err != nil {
		return nil, err
	}
	a, err := s.conn.Dialer.Agent(id)
	if err != nil {
		return nil, err
	}
	return sns.New(a, canister), nil
}
