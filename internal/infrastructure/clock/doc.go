// Package clock provides the scanner's network-synchronised wall clock.
//
// Offsets are obtained over SNTP using github.com/beevik/ntp. The local
// system clock is never stepped; the measured offset is applied on read.
// Timestamps are reported in a fixed zone taken from time.utc_offset.
//
// Usage:
//
//	clk := clock.New(clock.Options{
//	    Servers:   cfg.Time.NTPServers,
//	    UTCOffset: cfg.GetUTCOffset(),
//	})
//	if err := clk.Synchronize(cfg.Time.NTPServers); err != nil {
//	    log.Warn("initial time sync failed", "error", err)
//	}
//	fmt.Println(clk.Now())
package clock
