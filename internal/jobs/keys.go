package jobs

// queueName is the shared work queue key, namespaced per deployment.
const queueName = "gifqueue"

// Keys composes every namespaced key used by the job protocol. Routing all
// composition through one type guarantees that a marker is read, written,
// and deleted under the identical key.
type Keys struct {
	namespace string
}

// NewKeys returns a Keys for the configured namespace.
func NewKeys(namespace string) Keys {
	return Keys{namespace: namespace}
}

func (k Keys) wrap(name string) string {
	if k.namespace == "" {
		return name
	}
	return k.namespace + ":" + name
}

// Queue returns the work queue key.
func (k Keys) Queue() string {
	return k.wrap(queueName)
}

// Lock returns the lock marker key for an identifier.
func (k Keys) Lock(identifier string) string {
	return k.wrap(identifier + ".lock")
}

// Error returns the error marker key for an identifier.
func (k Keys) Error(identifier string) string {
	return k.wrap(identifier + ".error")
}
