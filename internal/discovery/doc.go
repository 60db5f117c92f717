// Package discovery locates peripheral daemons on the local network.
//
// Two mechanisms are provided. The mDNS scanner browses for
// "_pigpio._tcp" service records (the daemon does not advertise itself;
// hosts typically publish the record via an avahi service file). For
// networks without mDNS, Probe performs a plain TCP reachability check
// against the daemon port.
//
// Discovery requires multicast support on the local network segment and
// UDP port 5353 open for mDNS.
package discovery
