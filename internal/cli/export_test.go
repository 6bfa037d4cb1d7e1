package cli

// Export internal functions for testing.

// RunConversation exports runConversation for testing.
var RunConversation = runConversation

// ValidateConversation exports validateConversation for testing.
var ValidateConversation = validateConversation

// RunSay exports runSay for testing.
var RunSay = runSay

// RunListDevices exports runListDevices for testing.
var RunListDevices = runListDevices

// RunConfigSet exports runConfigSet for testing.
var RunConfigSet = runConfigSet

// RunConfigGet exports runConfigGet for testing.
var RunConfigGet = runConfigGet

// RunConfigList exports runConfigList for testing.
var RunConfigList = runConfigList

// ProbeServices exports probeServices for testing.
var ProbeServices = probeServices

// RequireKey exports requireKey for testing.
var RequireKey = requireKey

// ProgressPrinter exports progressPrinter for testing.
var ProgressPrinter = progressPrinter

// CleanupWarner exports cleanupWarner for testing.
var CleanupWarner = cleanupWarner
