package ai

// Status summarises the agent for the startup banner.
func (a *Agent) Status() map[string]interface{} {
	return map[string]interface{}{
		"model":         a.cfg.Model,
		"maxToolRounds": a.cfg.MaxToolRounds,
		"apiTimeout":    a.cfg.APITimeout.String(),
		"tools":         a.catalog.Names(),
		"messages":      a.conversation.Len(),
	}
}
