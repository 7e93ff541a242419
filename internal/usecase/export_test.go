package usecase

import "github.com/jonboulle/clockwork"

func (s *ScheduleService) SetClock(c clockwork.Clock)   { s.clock = c }
func (s *PickService) SetClock(c clockwork.Clock)       { s.clock = c }
func (s *LeagueService) SetClock(c clockwork.Clock)     { s.clock = c }
func (s *ResultSyncService) SetClock(c clockwork.Clock) { s.clock = c }
func (s *StandingsService) SetClock(c clockwork.Clock)  { s.clock = c }
func (p *ResultPoller) SetClock(c clockwork.Clock)      { p.clock = c }

func (s *LeagueService) SetInviteCodeFunc(fn func() (string, error)) { s.inviteCode = fn }
