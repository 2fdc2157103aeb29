package reporting

import "github.com/google/wire"

// ProviderSet wires the log-backed reporter.
var ProviderSet = wire.NewSet(NewLogReporter, wire.Bind(new(Reporter), new(*LogReporter)))
