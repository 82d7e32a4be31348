// Package resultset persists the list of unlicensed repositories exchanged between
// the enumerator and the licenser.
package resultset
