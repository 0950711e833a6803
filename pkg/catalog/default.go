package catalog

// defaultEntries is the built-in catalog: the functions listed by man
// pthreads as unsafe without the _r suffix, plus environment mutation.
// Reasons are what makes each symbol hazardous once a second thread exists.
func defaultEntries() []Entry {
	return []Entry{
		// The one substitute: read-only env lookup served from the shadow.
		{Symbol: SymbolGetenv, Policy: PolicySubstitute, Reason: "races with environment mutation; answered from the shadow"},

		// The one exemption: the resolver's own failure indicator.
		{Symbol: SymbolLastError, Policy: PolicyForward, Reason: "resolution machinery depends on it; gating it would be circular"},

		// Environment mutation.
		{Symbol: "setenv", Policy: PolicyAbort, Reason: "mutates the process environment"},
		{Symbol: "unsetenv", Policy: PolicyAbort, Reason: "mutates the process environment"},
		{Symbol: "putenv", Policy: PolicyAbort, Reason: "mutates the process environment"},

		// Non-reentrant time and locale formatters.
		{Symbol: "asctime", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "ctime", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "getdate", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "gmtime", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "localtime", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "localeconv", Policy: PolicyAbort, Reason: "returns a static buffer"},

		// Path splitting.
		{Symbol: "basename", Policy: PolicyAbort, Reason: "may modify its argument and return static storage"},
		{Symbol: "dirname", Policy: PolicyAbort, Reason: "may modify its argument and return static storage"},

		// Random number generators with hidden shared state.
		{Symbol: "rand", Policy: PolicyAbort, Reason: "hidden shared generator state"},
		{Symbol: "drand48", Policy: PolicyAbort, Reason: "hidden shared generator state"},
		{Symbol: "lrand48", Policy: PolicyAbort, Reason: "hidden shared generator state"},
		{Symbol: "mrand48", Policy: PolicyAbort, Reason: "hidden shared generator state"},

		// Crypt family.
		{Symbol: "crypt", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "encrypt", Policy: PolicyAbort, Reason: "shared key schedule state"},
		{Symbol: "setkey", Policy: PolicyAbort, Reason: "shared key schedule state"},

		// Group database.
		{Symbol: "getgrent", Policy: PolicyAbort, Reason: "global database iterator"},
		{Symbol: "getgrgid", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "getgrnam", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "setgrent", Policy: PolicyAbort, Reason: "global database iterator"},
		{Symbol: "endgrent", Policy: PolicyAbort, Reason: "global database iterator"},

		// Password database.
		{Symbol: "getpwent", Policy: PolicyAbort, Reason: "global database iterator"},
		{Symbol: "getpwnam", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "getpwuid", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "setpwent", Policy: PolicyAbort, Reason: "global database iterator"},
		{Symbol: "endpwent", Policy: PolicyAbort, Reason: "global database iterator"},

		// Host, network, protocol and service databases.
		{Symbol: "gethostent", Policy: PolicyAbort, Reason: "global database iterator"},
		{Symbol: "getnetbyaddr", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "getnetbyname", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "getnetent", Policy: PolicyAbort, Reason: "global database iterator"},
		{Symbol: "getprotobyname", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "getprotobynumber", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "getprotoent", Policy: PolicyAbort, Reason: "global database iterator"},
		{Symbol: "getservbyname", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "getservbyport", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "getservent", Policy: PolicyAbort, Reason: "global database iterator"},

		// Login records.
		{Symbol: "getlogin", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "getutxent", Policy: PolicyAbort, Reason: "global database iterator"},
		{Symbol: "getutxid", Policy: PolicyAbort, Reason: "global database iterator"},
		{Symbol: "getutxline", Policy: PolicyAbort, Reason: "global database iterator"},
		{Symbol: "pututxline", Policy: PolicyAbort, Reason: "global database iterator"},
		{Symbol: "setutxent", Policy: PolicyAbort, Reason: "global database iterator"},

		// Hash-table utilities with a single implicit table.
		{Symbol: "hcreate", Policy: PolicyAbort, Reason: "single implicit hash table"},
		{Symbol: "hsearch", Policy: PolicyAbort, Reason: "single implicit hash table"},
		{Symbol: "hdestroy", Policy: PolicyAbort, Reason: "single implicit hash table"},

		// Address-to-text conversion.
		{Symbol: "inet_ntoa", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "l64a", Policy: PolicyAbort, Reason: "returns a static buffer"},

		// Math functions with a shared sign-result global.
		{Symbol: "lgamma", Policy: PolicyAbort, Reason: "writes the shared signgam global"},
		{Symbol: "lgammaf", Policy: PolicyAbort, Reason: "writes the shared signgam global"},
		{Symbol: "lgammal", Policy: PolicyAbort, Reason: "writes the shared signgam global"},

		// String handling with static or caller-invisible state.
		{Symbol: "strtok", Policy: PolicyAbort, Reason: "carries parse position in hidden state"},
		{Symbol: "strerror", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "strsignal", Policy: PolicyAbort, Reason: "returns a static buffer"},

		// Misc static-buffer and global-state calls.
		{Symbol: "catgets", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "ctermid", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "readdir", Policy: PolicyAbort, Reason: "per-stream static result buffer"},
		{Symbol: "system", Policy: PolicyAbort, Reason: "signal disposition races across threads"},
		{Symbol: "tmpnam", Policy: PolicyAbort, Reason: "returns a static buffer"},
		{Symbol: "ttyname", Policy: PolicyAbort, Reason: "returns a static buffer"},
	}
}
