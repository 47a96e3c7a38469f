package domain

// KeyPrefix is the namespace prefix for every key the gateway writes to the session store.
const KeyPrefix = "leanbot:"
