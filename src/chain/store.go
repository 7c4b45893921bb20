package chain

// Store is the persistence boundary for ledger state. On load failure the
// engine starts from a fresh genesis chain instead of failing hard, so a
// missing or corrupt store never prevents the network from coming up.
type Store interface {
	SaveState(*State) error
	LoadState() (*State, error)
	Close() error
}
