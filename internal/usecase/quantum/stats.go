package quantum

// Stats describes the quantum search configuration.
type Stats struct {
	Service            string
	Algorithm          string
	Simulator          string
	MaxQubits          int
	Shots              int
	MaxSearchableItems int
	MinIterations      int
	MaxIterations      int
	BoostFactor        float64
	Threshold          float64
	Status             string
}

// Stats returns the effective configuration of the service.
func (s *Service) Stats() Stats {
	cfg := s.runner.Config()
	return Stats{
		Service:            "quantum_search",
		Algorithm:          "grovers",
		Simulator:          s.cfg.Simulator,
		MaxQubits:          cfg.MaxQubits,
		Shots:              cfg.Shots,
		MaxSearchableItems: cfg.MaxSearchable(),
		MinIterations:      cfg.MinIterations,
		MaxIterations:      cfg.MaxIterations,
		BoostFactor:        s.cfg.BoostFactor,
		Threshold:          s.cfg.Threshold,
		Status:             "ready",
	}
}
